package country

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 桩号格式：仅支持 K 公里+米 写法，如 K0+000、K12+350
var stakePattern = regexp.MustCompile(`^K(\d+)\+(\d+)$`)

// ParseStake：桩号文本转总米数
func ParseStake(s string) (int, error) {
	m := stakePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("无效的桩号格式: %s，请使用K0+000格式", s)
	}
	km, _ := strconv.Atoi(m[1])
	meters, _ := strconv.Atoi(m[2])
	return km*1000 + meters, nil
}

// FormatStake：总米数转桩号文本，米段固定三位
func FormatStake(meters int) string {
	return fmt.Sprintf("K%d+%03d", meters/1000, meters%1000)
}

// StakeSegment：一个里程桩区间，对应一条二级道路
type StakeSegment struct {
	Start string
	End   string
}

// SegmentStakes：按里程桩间隔切分桩号范围
// 返回：桩号分段列表与总长度（公里）
// 约束：终点必须大于起点；间隔必须为正且不超过总长；末段允许不足一个间隔
func SegmentStakes(startStake, endStake string, intervalMeters int) ([]StakeSegment, float64, error) {
	start, err := ParseStake(startStake)
	if err != nil {
		return nil, 0, fmt.Errorf("无效的起点桩号格式: %s，请使用K0+000格式", startStake)
	}
	end, err := ParseStake(endStake)
	if err != nil {
		return nil, 0, fmt.Errorf("无效的终点桩号格式: %s，请使用K0+000格式", endStake)
	}
	if end <= start {
		return nil, 0, fmt.Errorf("终点桩号(%s)必须大于起点桩号(%s)", endStake, startStake)
	}
	if intervalMeters <= 0 {
		return nil, 0, fmt.Errorf("里程桩间隔必须大于0，当前值: %d", intervalMeters)
	}
	if intervalMeters > end-start {
		return nil, 0, fmt.Errorf("里程桩间隔(%d米)不能大于道路总长度(%d米)", intervalMeters, end-start)
	}
	totalKM := float64(end-start) / 1000.0
	var segments []StakeSegment
	for cur := start; cur < end; {
		segEnd := cur + intervalMeters
		if segEnd > end {
			segEnd = end
		}
		segments = append(segments, StakeSegment{Start: FormatStake(cur), End: FormatStake(segEnd)})
		cur = segEnd
	}
	return segments, totalKM, nil
}
