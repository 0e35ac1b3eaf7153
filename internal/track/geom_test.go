package track

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestLength(t *testing.T) {
	line := orb.LineString{{0, 0}, {100, 0}, {100, 50}}
	assert.InDelta(t, 150, Length(line), 1e-9)
	assert.Equal(t, 0.0, Length(orb.LineString{{1, 1}}))
}

func TestInterpolate(t *testing.T) {
	line := orb.LineString{{0, 0}, {100, 0}, {100, 100}}

	assert.Equal(t, orb.Point{0, 0}, Interpolate(line, 0))
	assert.Equal(t, orb.Point{50, 0}, Interpolate(line, 50))
	assert.Equal(t, orb.Point{100, 0}, Interpolate(line, 100))
	assert.Equal(t, orb.Point{100, 30}, Interpolate(line, 130))
	// 越界钳制到端点
	assert.Equal(t, orb.Point{0, 0}, Interpolate(line, -5))
	assert.Equal(t, orb.Point{100, 100}, Interpolate(line, 999))
}

func TestSegmentsAlong(t *testing.T) {
	line := orb.LineString{{0, 0}, {250, 0}}
	segs, err := SegmentsAlong(line, 100)
	assert.NoError(t, err)
	assert.Len(t, segs, 3)

	assert.Equal(t, orb.Point{0, 0}, segs[0].Start)
	assert.Equal(t, orb.Point{100, 0}, segs[0].End)
	assert.InDelta(t, 100, segs[0].Length, 1e-9)
	assert.InDelta(t, 0, segs[0].StartDistance, 1e-9)
	assert.InDelta(t, 100, segs[0].EndDistance, 1e-9)

	// 末段不足一个间隔
	assert.Equal(t, orb.Point{200, 0}, segs[2].Start)
	assert.Equal(t, orb.Point{250, 0}, segs[2].End)
	assert.InDelta(t, 50, segs[2].Length, 1e-9)
}

func TestSegmentsAlongErrors(t *testing.T) {
	_, err := SegmentsAlong(orb.LineString{{0, 0}, {1, 0}}, 0)
	assert.Error(t, err)
	_, err = SegmentsAlong(orb.LineString{{5, 5}, {5, 5}}, 10)
	assert.Error(t, err)
}

func TestOffsetLineStraight(t *testing.T) {
	line := orb.LineString{{0, 0}, {100, 0}}

	left, err := OffsetLine(line, 5, SideLeft)
	assert.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, 5}, {100, 5}}, left)

	right, err := OffsetLine(line, 5, SideRight)
	assert.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, -5}, {100, -5}}, right)
}

func TestOffsetLineCorner(t *testing.T) {
	// 直角拐点：斜接点位于角平分线方向，距原点 offset*sqrt(2)
	line := orb.LineString{{0, 0}, {100, 0}, {100, 100}}
	left, err := OffsetLine(line, 4, SideLeft)
	assert.NoError(t, err)
	assert.Len(t, left, 3)
	assert.InDelta(t, 0, left[0][0], 1e-9)
	assert.InDelta(t, 4, left[0][1], 1e-9)
	// 拐点偏向左上方
	assert.InDelta(t, 96, left[1][0], 1e-6)
	assert.InDelta(t, 4, left[1][1], 1e-6)
	assert.InDelta(t, 96, left[2][0], 1e-9)
	assert.InDelta(t, 100, left[2][1], 1e-9)
}

func TestOffsetLineDegenerate(t *testing.T) {
	_, err := OffsetLine(orb.LineString{{1, 1}}, 5, SideLeft)
	assert.Error(t, err)

	// 零长线退化为重复点对
	out, err := OffsetLine(orb.LineString{{10, 10}, {10, 10}}, 5, SideLeft)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, out[0], out[1])
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(orb.LineString{{103.9, 30.5}, {103.95, 30.55}}))
	assert.Error(t, ValidateCoordinates(orb.LineString{{103.9, 30.5}}))
	assert.Error(t, ValidateCoordinates(orb.LineString{{200, 30}, {103.9, 30.5}}))
	assert.Error(t, ValidateCoordinates(orb.LineString{{103.9, 95}, {103.95, 30.55}}))
}
