package country

import (
	"encoding/json"
	"fmt"
	"os"

	"road-api/internal/logger"
	"road-api/internal/track"
)

// DefaultDirections：方向标签到左右轨迹的内置映射
// 背景：配置文件缺失时的兜底；与现场使用的模板约定保持一致
func DefaultDirections() map[string]track.Side {
	return map[string]track.Side{
		"东侧": track.SideRight,
		"西侧": track.SideLeft,
		"南侧": track.SideRight,
		"北侧": track.SideLeft,
		"内圈": track.SideRight,
		"外圈": track.SideLeft,
		"上行": track.SideLeft,
		"下行": track.SideRight,
	}
}

// directionConfig：方向映射配置文件结构，值沿用历史约定 left_track/right_track
type directionConfig struct {
	DirectionMapping map[string]string `json:"direction_mapping"`
}

// LoadDirections：从 JSON 配置加载方向映射
// 约束：读取或解析失败时记录日志并回退到内置映射，不中断启动
func LoadDirections(path string) map[string]track.Side {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.L().Warn("direction_config_fallback", "path", path, "err", err)
		return DefaultDirections()
	}
	var cfg directionConfig
	if err := json.Unmarshal(b, &cfg); err != nil || len(cfg.DirectionMapping) == 0 {
		logger.L().Warn("direction_config_invalid", "path", path, "err", err)
		return DefaultDirections()
	}
	out := make(map[string]track.Side, len(cfg.DirectionMapping))
	for label, v := range cfg.DirectionMapping {
		switch v {
		case "left_track":
			out[label] = track.SideLeft
		case "right_track":
			out[label] = track.SideRight
		default:
			logger.L().Warn("direction_config_skip", "label", label, "value", v)
		}
	}
	logger.L().Info("direction_config_loaded", "path", path, "count", len(out))
	return out
}

// segmentFor：按方向标签与分段序号取轨迹分段
func segmentFor(tracks *track.Tracks, directions map[string]track.Side, label string, index int) (track.Segment, error) {
	side, ok := directions[label]
	if !ok {
		return track.Segment{}, fmt.Errorf("未知的方向标签: %s", label)
	}
	segs := tracks.RightSegments
	if side == track.SideLeft {
		segs = tracks.LeftSegments
	}
	if index < 0 || index >= len(segs) {
		return track.Segment{}, fmt.Errorf("分段索引超出范围: %d >= %d", index, len(segs))
	}
	return segs[index], nil
}
