// 包 convert：导入表字段的文本转换（车道数、日期、行车方向）
// 背景：两个资源族的模板共用这些列的填写约定，转换规则集中维护
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 车道数列为中文枚举，不接受数字填写
var laneCounts = map[string]int{
	"单车道": 1,
	"双车道": 2,
	"三车道": 3,
	"四车道": 4,
	"五车道": 5,
	"六车道": 6,
	"七车道": 7,
	"八车道": 8,
}

// LaneCount：车道数文本转数字
func LaneCount(text string) (int, error) {
	n, ok := laneCounts[strings.TrimSpace(text)]
	if !ok {
		return 0, fmt.Errorf("无效的车道数: %s", text)
	}
	return n, nil
}

// 日期解析格式：覆盖模板中观测到的各种人工填写习惯
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006年01月02日",
	"2006年1月2日",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"2006.01.02",
	"02.01.2006",
}

// 养护时间按北京时间解析；容器缺少时区数据时退回固定 +8 偏移
var cst = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		return loc
	}
	return time.FixedZone("CST", 8*3600)
}()

// DateMillis：日期文本转毫秒时间戳
// 约束：纯数字输入按电子表格日期序列号处理——序列号以 1900-01-01 为 1，
// 且表格软件历史上把 1900 年当闰年，换算时需要减 2 天
func DateMillis(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("日期为空")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int(serial)
		frac := serial - float64(whole)
		// 按壁钟日历推进天数，避免早期时区偏移差污染换算结果
		base := time.Date(1900, 1, 1, 0, 0, 0, 0, cst)
		dt := base.AddDate(0, 0, whole-2).Add(time.Duration(frac * 24 * float64(time.Hour)))
		return dt.UnixMilli(), nil
	}
	for _, layout := range dateLayouts {
		if dt, err := time.ParseInLocation(layout, s, cst); err == nil {
			return dt.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("无法解析日期格式: %s", s)
}

// Directions：解析行车方向列
// 背景：双向道路按“东侧/西侧”形式填写，斜杠分隔；单向仅一个标签
func Directions(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "/") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
