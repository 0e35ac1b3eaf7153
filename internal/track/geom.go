// 包 track：道路轨迹几何计算，全部在 BD-09MC 墨卡托米制平面内进行
package track

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// Side：偏移方向，沿线路前进方向的左侧或右侧
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// 斜接系数上限：锐角拐点处防止偏移点被无限拉远
const miterLimit = 2.0

// Length：折线总长度（米）
func Length(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += dist(line[i-1], line[i])
	}
	return total
}

func dist(a, b orb.Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// Interpolate：取距起点指定里程处的坐标
// 约束：里程越界时钳制到端点，不报错
func Interpolate(line orb.LineString, distance float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if distance <= 0 {
		return line[0]
	}
	walked := 0.0
	for i := 1; i < len(line); i++ {
		seg := dist(line[i-1], line[i])
		if walked+seg >= distance && seg > 0 {
			t := (distance - walked) / seg
			return orb.Point{
				line[i-1][0] + t*(line[i][0]-line[i-1][0]),
				line[i-1][1] + t*(line[i][1]-line[i-1][1]),
			}
		}
		walked += seg
	}
	return line[len(line)-1]
}

// Segment：轨迹分段，记录端点坐标、实际长度与距总起点的里程
type Segment struct {
	Start         orb.Point
	End           orb.Point
	Length        float64
	StartDistance float64
	EndDistance   float64
}

// SegmentsAlong：沿折线按间隔切分路段
// 背景：每段对应一条三级道路；最后一段允许不足一个间隔
func SegmentsAlong(line orb.LineString, intervalMeters float64) ([]Segment, error) {
	if intervalMeters <= 0 {
		return nil, errors.New("间隔必须大于0")
	}
	total := Length(line)
	if total <= 0 {
		return nil, errors.New("轨迹线长度为0")
	}
	var segments []Segment
	distance := 0.0
	for distance < total {
		start := distance
		end := math.Min(distance+intervalMeters, total)
		segments = append(segments, Segment{
			Start:         Interpolate(line, start),
			End:           Interpolate(line, end),
			Length:        end - start,
			StartDistance: start,
			EndDistance:   end,
		})
		distance += intervalMeters
	}
	return segments, nil
}

// OffsetLine：生成平行偏移线
// 为什么：左右行车道轨迹由中心线向两侧平移半个路宽得到
// 约束：在米制平面内直接以米为偏移量；拐点用斜接法并限制系数防止尖刺；
// 线路过短退化时返回首点的重复点对，与上游的退化处理保持一致
func OffsetLine(line orb.LineString, offsetMeters float64, side Side) (orb.LineString, error) {
	if len(line) < 2 {
		return nil, errors.New("至少需要2个坐标点")
	}
	if Length(line) == 0 {
		p := offsetPoint(line[0], normalOf(line[0], orb.Point{line[0][0] + 1, line[0][1]}, side), offsetMeters)
		return orb.LineString{p, p}, nil
	}
	// 每条线段的单位法向量；零长线段沿用前一段的法向
	normals := make([]orb.Point, 0, len(line)-1)
	var last orb.Point
	for i := 1; i < len(line); i++ {
		if dist(line[i-1], line[i]) == 0 {
			normals = append(normals, last)
			continue
		}
		last = normalOf(line[i-1], line[i], side)
		normals = append(normals, last)
	}
	out := make(orb.LineString, len(line))
	out[0] = offsetPoint(line[0], normals[0], offsetMeters)
	for i := 1; i < len(line)-1; i++ {
		n1 := normals[i-1]
		n2 := normals[i]
		nx := n1[0] + n2[0]
		ny := n1[1] + n2[1]
		l := math.Hypot(nx, ny)
		if l < 1e-9 {
			// 掉头式拐点：退回单段法向
			out[i] = offsetPoint(line[i], n2, offsetMeters)
			continue
		}
		nx /= l
		ny /= l
		// 斜接比例 = 1/cos(夹角/2)，超限时钳制
		scale := 1.0 / math.Max(nx*n2[0]+ny*n2[1], 1.0/miterLimit)
		out[i] = offsetPoint(line[i], orb.Point{nx, ny}, offsetMeters*scale)
	}
	out[len(line)-1] = offsetPoint(line[len(line)-1], normals[len(normals)-1], offsetMeters)
	return out, nil
}

// normalOf：线段的单位法向量，左侧为前进方向逆时针90度
func normalOf(a, b orb.Point, side Side) orb.Point {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return orb.Point{}
	}
	if side == SideLeft {
		return orb.Point{-dy / l, dx / l}
	}
	return orb.Point{dy / l, -dx / l}
}

func offsetPoint(p, n orb.Point, d float64) orb.Point {
	return orb.Point{p[0] + n[0]*d, p[1] + n[1]*d}
}

// ValidateCoordinates：校验 BD-09 坐标范围与点数
func ValidateCoordinates(line orb.LineString) error {
	if len(line) < 2 {
		return errors.New("至少需要2个坐标点才能构成道路中心线")
	}
	for _, p := range line {
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			return errors.New("坐标超出有效范围")
		}
	}
	return nil
}
