// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"road-api/internal/logger"
	"road-api/internal/report"
	"road-api/internal/store"
)

// Runner：导入流水线抽象，两个资源族各注入一个实现
type Runner interface {
	Run(ctx context.Context, r io.Reader) (*report.Result, error)
}

// StatsReader：统计读取抽象
type StatsReader interface {
	GetTotals(ctx context.Context) (*store.Totals, error)
}

// Deps：路由依赖集合
type Deps struct {
	Stats       StatsReader
	Country     Runner
	City        Runner
	TemplateDir string
}

// 响应包裹：code 0 成功、1 业务失败，与外部系统的包裹习惯保持一致
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BuildRoutes：构建 API 路由，独立 ServeMux 便于在主入口挂载到前缀之下
func BuildRoutes(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	registerFamily(mux, "/countryside", deps.Country, filepath.Join(deps.TemplateDir, "农村公路导入模板_V1.0.csv"), "农村公路导入模板.csv")
	registerFamily(mux, "/city", deps.City, filepath.Join(deps.TemplateDir, "城市道路导入模板_V1.0.csv"), "城市道路导入模板.csv")

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		t, err := deps.Stats.GetTotals(r.Context())
		if err != nil {
			logger.L().Error("stats_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, envelope{Code: 1, Message: "统计查询失败"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": t.Jobs, "rows": t.Rows, "failed": t.Failed})
	})
	return mux
}

// registerFamily：为一个资源族挂载模板下载与导入接口
func registerFamily(mux *http.ServeMux, prefix string, runner Runner, templatePath, downloadName string) {
	mux.HandleFunc(prefix+"/download_template", func(w http.ResponseWriter, r *http.Request) {
		if _, err := http.Dir(filepath.Dir(templatePath)).Open(filepath.Base(templatePath)); err != nil {
			writeJSON(w, http.StatusNotFound, envelope{Code: 1, Message: "模板文件不存在"})
			return
		}
		w.Header().Set("content-disposition", `attachment; filename="`+downloadName+`"`)
		w.Header().Set("content-type", "text/csv; charset=utf-8")
		http.ServeFile(w, r, templatePath)
	})

	mux.HandleFunc(prefix+"/import_data", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, envelope{Code: 1, Message: "仅支持POST"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Code: 1, Message: "缺少上传文件"})
			return
		}
		defer file.Close()
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
			writeJSON(w, http.StatusBadRequest, envelope{Code: 1, Message: "文件格式错误，请上传CSV文件(.csv)"})
			return
		}
		logger.L().Info("upload_received", "path", prefix, "filename", header.Filename, "size", header.Size)

		res, err := runner.Run(r.Context(), file)
		if err != nil {
			logger.L().Error("import_error", "path", prefix, "err", err)
			writeJSON(w, http.StatusInternalServerError, envelope{Code: 1, Message: "文件处理异常: " + err.Error()})
			return
		}
		if !res.Success {
			// 错误明细只回传前10条，完整清单见服务日志
			errs := res.Errors
			if len(errs) > 10 {
				errs = errs[:10]
			}
			writeJSON(w, http.StatusBadRequest, envelope{Code: 1, Message: res.Message, Data: map[string]any{
				"total_rows":     res.TotalRows,
				"processed_rows": res.ProcessedRows,
				"failed_rows":    res.FailedRows,
				"errors":         errs,
			}})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Code: 0, Message: res.Message, Data: map[string]any{
			"total_rows":     res.TotalRows,
			"processed_rows": res.ProcessedRows,
			"failed_rows":    res.FailedRows,
			"road_results":   res.RoadResults,
		}})
	})
}
