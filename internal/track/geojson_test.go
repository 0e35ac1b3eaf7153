package track

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestSegmentPayload(t *testing.T) {
	start := orb.Point{103.91, 30.51}
	end := orb.Point{103.92, 30.52}
	payload, err := SegmentPayload(start, end, 500)
	assert.NoError(t, err)

	var features []map[string]any
	assert.NoError(t, json.Unmarshal([]byte(payload), &features))
	assert.Len(t, features, 3)

	// length（公里）位于 geometry 对象内部，而非 properties
	geom := features[0]["geometry"].(map[string]any)
	assert.Equal(t, "LineString", geom["type"])
	assert.InDelta(t, 0.5, geom["length"].(float64), 1e-9)
	_, hasProps := features[0]["properties"]
	assert.False(t, hasProps)

	assert.Equal(t, "Point", features[1]["geometry"].(map[string]any)["type"])
	assert.Equal(t, "Point", features[2]["geometry"].(map[string]any)["type"])
}

func TestParseSegmentPayloadRoundTrip(t *testing.T) {
	start := orb.Point{103.91, 30.51}
	end := orb.Point{103.92, 30.52}
	payload, err := SegmentPayload(start, end, 500)
	assert.NoError(t, err)

	line, lengthKM, points, err := ParseSegmentPayload(payload)
	assert.NoError(t, err)
	assert.Equal(t, orb.LineString{start, end}, line)
	assert.InDelta(t, 0.5, lengthKM, 1e-9)
	assert.Equal(t, []orb.Point{start, end}, points)
}

func TestParseSegmentPayloadDuplicateTail(t *testing.T) {
	// 生产数据常见重复尾点，解析时去重
	payload := `[
	  {"type":"Feature","geometry":{"type":"LineString","coordinates":[[103.9,30.5],[103.91,30.51]],"length":0.1}},
	  {"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[103.9,30.5]}},
	  {"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[103.91,30.51]}},
	  {"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[103.91,30.51]}}
	]`
	line, lengthKM, points, err := ParseSegmentPayload(payload)
	assert.NoError(t, err)
	assert.Len(t, line, 2)
	assert.InDelta(t, 0.1, lengthKM, 1e-9)
	assert.Equal(t, []orb.Point{{103.9, 30.5}, {103.91, 30.51}}, points)
}

func TestParseSegmentPayloadMissingLine(t *testing.T) {
	payload := `[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]`
	_, _, _, err := ParseSegmentPayload(payload)
	assert.Error(t, err)

	_, _, _, err = ParseSegmentPayload("not json")
	assert.Error(t, err)
}
