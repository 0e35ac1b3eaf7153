package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sample = "说明行,,\n" +
	"名称,长度,备注\n" +
	"示范路, 1.2 ,\n" +
	",,\n" +
	"二号路,0.8,备注内容\n"

func TestRead(t *testing.T) {
	s, err := Read(strings.NewReader(sample))
	assert.NoError(t, err)
	assert.Equal(t, []string{"名称", "长度", "备注"}, s.Columns)
	// 全空行跳过，行号按表格实际行号（数据从第3行起）
	assert.Len(t, s.Rows, 2)
	assert.Equal(t, 3, s.Rows[0].Number)
	assert.Equal(t, 5, s.Rows[1].Number)

	assert.Equal(t, "示范路", s.Rows[0].Get("名称"))
	assert.Equal(t, "1.2", s.Rows[0].Get("长度"))
	assert.False(t, s.Rows[0].Has("备注"))
	assert.True(t, s.Rows[1].Has("备注"))
	assert.Equal(t, "", s.Rows[0].Get("不存在的列"))
}

func TestReadMissingHeader(t *testing.T) {
	_, err := Read(strings.NewReader("只有一行\n"))
	assert.Error(t, err)
}

func TestValidateRequired(t *testing.T) {
	s, err := Read(strings.NewReader(sample))
	assert.NoError(t, err)

	errs := ValidateRequired(s, []string{"名称", "长度", "备注"})
	assert.Equal(t, []string{"第3行缺少：备注"}, errs)

	assert.Empty(t, ValidateRequired(s, []string{"名称", "长度"}))
}
