// 包 sheet：导入模板表格读取
// 约束：模板首行为说明行，第二行为表头，数据从第三行开始；行号对外始终按表格
// 实际行号（从1起）报告，便于填表人对照修正
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row：一行数据，按表头列名取值
type Row struct {
	Number int
	cells  map[string]string
}

// Get：按列名取值，去除首尾空白；列不存在返回空串
func (r Row) Get(col string) string { return strings.TrimSpace(r.cells[col]) }

// Has：列存在且非空
func (r Row) Has(col string) bool { return r.Get(col) != "" }

// Sheet：已解析的导入表
type Sheet struct {
	Columns []string
	Rows    []Row
}

// Read：读取导入模板
// 背景：模板由电子表格另存为 CSV，列布局与原表保持一致
func Read(rd io.Reader) (*Sheet, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("表格解析失败: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("表格缺少表头行")
	}
	header := records[1]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	s := &Sheet{Columns: columns}
	for idx := 2; idx < len(records); idx++ {
		rec := records[idx]
		cells := make(map[string]string, len(columns))
		empty := true
		for i, col := range columns {
			if col == "" || i >= len(rec) {
				continue
			}
			cells[col] = rec[i]
			if strings.TrimSpace(rec[i]) != "" {
				empty = false
			}
		}
		// 跳过整行为空的占位行
		if empty {
			continue
		}
		s.Rows = append(s.Rows, Row{Number: idx + 1, cells: cells})
	}
	return s, nil
}

// ValidateRequired：逐行检查必填列，返回缺失提示
// 返回格式："第N行缺少：列1, 列2"
func ValidateRequired(s *Sheet, required []string) []string {
	var errs []string
	for _, row := range s.Rows {
		var missing []string
		for _, col := range required {
			if !row.Has(col) {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("第%d行缺少：%s", row.Number, strings.Join(missing, ", ")))
		}
	}
	return errs
}
