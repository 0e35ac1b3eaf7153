package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinish(t *testing.T) {
	r := &Result{ProcessedRows: 3}
	r.Finish()
	assert.True(t, r.Success)
	assert.Equal(t, "所有数据处理成功: 共3行", r.Message)

	r = &Result{ProcessedRows: 2, FailedRows: 1}
	r.Finish()
	assert.False(t, r.Success)
	assert.Equal(t, "部分数据处理失败: 成功2行，失败1行", r.Message)
}

func TestValidationFailed(t *testing.T) {
	r := ValidationFailed([]string{"第3行缺少：道路名称"})
	assert.False(t, r.Success)
	assert.Equal(t, "数据验证失败", r.Message)
	assert.Len(t, r.Errors, 1)
}
