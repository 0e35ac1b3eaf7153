package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"road-api/internal/geoconv"
	"road-api/internal/logger"

	"github.com/paulmach/orb"
)

// Converter：坐标系转换依赖
// 背景：生产环境由 geoconv.Client 实现；测试用桩实现替换外部调用
type Converter interface {
	Convert(ctx context.Context, coords []orb.Point, from, to string) ([]orb.Point, error)
}

// Tracks：轨迹生成结果，坐标均为 BD-09
type Tracks struct {
	Center        orb.LineString
	Left          orb.LineString
	Right         orb.LineString
	LeftSegments  []Segment
	RightSegments []Segment
}

// Generator：道路轨迹生成器
// 转换流程：BD-09 → BD-09MC → 几何计算 → BD-09MC → BD-09；
// 墨卡托米制平面内计算可减少坐标转换步骤并提升精度
type Generator struct {
	Conv Converter
}

func NewGenerator(conv Converter) *Generator { return &Generator{Conv: conv} }

// ParallelTracks：由中心线生成左右轨迹线与分段标点
// 参数：center 为 BD-09 中心线；widthMeters 为路宽；markerInterval>0 时按间隔切分路段
// 返回：左右轨迹线及各自分段（端点已转回 BD-09）
func (g *Generator) ParallelTracks(ctx context.Context, center orb.LineString, widthMeters, markerInterval float64) (*Tracks, error) {
	if err := ValidateCoordinates(center); err != nil {
		return nil, err
	}
	if widthMeters <= 0 {
		return nil, errors.New("道路宽度必须大于0")
	}
	mc, err := g.Conv.Convert(ctx, center, geoconv.CoordBD09, geoconv.CoordBD09MC)
	if err != nil {
		return nil, fmt.Errorf("中心线坐标转换失败: %w", err)
	}
	offset := widthMeters / 2.0
	leftMC, err := OffsetLine(mc, offset, SideLeft)
	if err != nil {
		return nil, err
	}
	rightMC, err := OffsetLine(mc, offset, SideRight)
	if err != nil {
		return nil, err
	}
	var leftSegMC, rightSegMC []Segment
	if markerInterval > 0 {
		if leftSegMC, err = SegmentsAlong(leftMC, markerInterval); err != nil {
			return nil, err
		}
		if rightSegMC, err = SegmentsAlong(rightMC, markerInterval); err != nil {
			return nil, err
		}
	}
	left, err := g.Conv.Convert(ctx, leftMC, geoconv.CoordBD09MC, geoconv.CoordBD09)
	if err != nil {
		return nil, fmt.Errorf("左轨迹坐标转换失败: %w", err)
	}
	right, err := g.Conv.Convert(ctx, rightMC, geoconv.CoordBD09MC, geoconv.CoordBD09)
	if err != nil {
		return nil, fmt.Errorf("右轨迹坐标转换失败: %w", err)
	}
	t := &Tracks{Center: center, Left: left, Right: right}
	if markerInterval > 0 {
		if t.LeftSegments, err = g.segmentsToBD09(ctx, leftSegMC); err != nil {
			return nil, err
		}
		if t.RightSegments, err = g.segmentsToBD09(ctx, rightSegMC); err != nil {
			return nil, err
		}
	}
	logger.L().Debug("tracks_done",
		"center_points", len(center),
		"left_points", len(t.Left),
		"right_points", len(t.Right),
		"left_segments", len(t.LeftSegments),
		"right_segments", len(t.RightSegments),
	)
	return t, nil
}

// segmentsToBD09：批量把分段端点转回 BD-09
// 背景：起终点合并为一次转换请求，避免逐段调用转换接口
func (g *Generator) segmentsToBD09(ctx context.Context, segs []Segment) ([]Segment, error) {
	if len(segs) == 0 {
		return nil, nil
	}
	coords := make([]orb.Point, 0, len(segs)*2)
	for _, s := range segs {
		coords = append(coords, s.Start, s.End)
	}
	conv, err := g.Conv.Convert(ctx, coords, geoconv.CoordBD09MC, geoconv.CoordBD09)
	if err != nil {
		return nil, fmt.Errorf("分段坐标转换失败: %w", err)
	}
	if len(conv) != len(coords) {
		return nil, errors.New("分段坐标转换结果数量不符")
	}
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = Segment{
			Start:         conv[i*2],
			End:           conv[i*2+1],
			Length:        s.Length,
			StartDistance: s.StartDistance,
			EndDistance:   s.EndDistance,
		}
	}
	return out, nil
}

// ParseCenterline：解析导入表中的轨迹坐标单元格
// 约束：格式为 [[lng,lat],...] 的 JSON 数组；每个点必须恰好两个分量
func ParseCenterline(cell string) (orb.LineString, error) {
	var raw [][]float64
	if err := json.Unmarshal([]byte(cell), &raw); err != nil {
		return nil, fmt.Errorf("轨迹坐标格式错误: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("坐标列表不能为空")
	}
	line := make(orb.LineString, len(raw))
	for i, c := range raw {
		if len(c) != 2 {
			return nil, fmt.Errorf("无效的坐标点: %v", c)
		}
		line[i] = orb.Point{c[0], c[1]}
	}
	return line, nil
}
