package track

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// lineGeometry：带 length 成员的 LineString 几何体
// 约束：外部接口存储的几何把 length（公里）放在 geometry 对象内部而非
// properties，标准 GeoJSON 库不会生成该布局，此处手工绑定
type lineGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
	Length      float64     `json:"length"`
}

type lineFeature struct {
	Type     string       `json:"type"`
	Geometry lineGeometry `json:"geometry"`
}

// SegmentPayload：生成三级道路的几何标注载荷
// 背景：外部接口的 geojson 字段接收 Feature 数组的 JSON 字符串——一条在
// geometry 内携带 length（公里）的 LineString，随后是起终点的 Point 标注
func SegmentPayload(start, end orb.Point, lengthMeters float64) (string, error) {
	line := lineFeature{
		Type: "Feature",
		Geometry: lineGeometry{
			Type:        "LineString",
			Coordinates: [][]float64{{start[0], start[1]}, {end[0], end[1]}},
			Length:      lengthMeters / 1000.0,
		},
	}
	features := []any{
		line,
		geojson.NewFeature(start),
		geojson.NewFeature(end),
	}
	b, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseSegmentPayload：解析几何标注载荷，返回轨迹线、长度（公里）与标注点
// 约束：生产数据的 Point 列表存在重复/近重复的尾点（人工录入问题），
// 解析时对连续重复点去重，不视为错误
func ParseSegmentPayload(payload string) (orb.LineString, float64, []orb.Point, error) {
	var features []struct {
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal([]byte(payload), &features); err != nil {
		return nil, 0, nil, err
	}
	var line orb.LineString
	var lengthKM float64
	var points []orb.Point
	for _, f := range features {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(f.Geometry, &head); err != nil {
			continue
		}
		switch head.Type {
		case "LineString":
			if line != nil {
				continue
			}
			var g lineGeometry
			if err := json.Unmarshal(f.Geometry, &g); err != nil {
				return nil, 0, nil, err
			}
			line = make(orb.LineString, len(g.Coordinates))
			for i, c := range g.Coordinates {
				if len(c) != 2 {
					return nil, 0, nil, errors.New("载荷坐标点分量数异常")
				}
				line[i] = orb.Point{c[0], c[1]}
			}
			lengthKM = g.Length
		case "Point":
			var g struct {
				Coordinates []float64 `json:"coordinates"`
			}
			if err := json.Unmarshal(f.Geometry, &g); err != nil || len(g.Coordinates) != 2 {
				continue
			}
			p := orb.Point{g.Coordinates[0], g.Coordinates[1]}
			if n := len(points); n > 0 && points[n-1] == p {
				continue
			}
			points = append(points, p)
		}
	}
	if line == nil {
		return nil, 0, nil, errors.New("载荷中缺少 LineString")
	}
	return line, lengthKM, points, nil
}
