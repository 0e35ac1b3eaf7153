// 包 report：导入结果的统一结构，两个资源族与 HTTP 层共用
package report

import "fmt"

// RoadResult：单条道路的创建结果，含各级节点 id 与逐段错误
type RoadResult struct {
	RoadName  string   `json:"road_name"`
	Level1ID  int64    `json:"level1_id"`
	Level2IDs []int64  `json:"level2_ids"`
	Level3IDs []int64  `json:"level3_ids"`
	Errors    []string `json:"errors"`
}

// Result：一次导入任务的汇总结果
type Result struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	TotalRows     int           `json:"total_rows"`
	ProcessedRows int           `json:"processed_rows"`
	FailedRows    int           `json:"failed_rows"`
	RoadResults   []*RoadResult `json:"road_results,omitempty"`
	Errors        []string      `json:"errors,omitempty"`
}

// Finish：按成败行数生成汇总信息
func (r *Result) Finish() {
	if r.FailedRows > 0 {
		r.Success = false
		r.Message = fmt.Sprintf("部分数据处理失败: 成功%d行，失败%d行", r.ProcessedRows, r.FailedRows)
		return
	}
	r.Success = true
	r.Message = fmt.Sprintf("所有数据处理成功: 共%d行", r.ProcessedRows)
}

// ValidationFailed：构造验证失败结果
func ValidationFailed(errs []string) *Result {
	return &Result{Success: false, Message: "数据验证失败", Errors: errs}
}
