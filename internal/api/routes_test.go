package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"road-api/internal/report"
	"road-api/internal/store"

	"github.com/stretchr/testify/assert"
)

type fakeRunner struct {
	result *report.Result
	err    error
	got    string
}

func (f *fakeRunner) Run(_ context.Context, r io.Reader) (*report.Result, error) {
	b, _ := io.ReadAll(r)
	f.got = string(b)
	return f.result, f.err
}

type fakeStats struct{}

func (fakeStats) GetTotals(context.Context) (*store.Totals, error) {
	return &store.Totals{Jobs: 5, Rows: 120, Failed: 3}, nil
}

func newDeps(t *testing.T, runner *fakeRunner) Deps {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "农村公路导入模板_V1.0.csv"), []byte("说明\n表头\n"), 0o644)
	assert.NoError(t, err)
	return Deps{Stats: fakeStats{}, Country: runner, City: runner, TemplateDir: dir}
}

func uploadRequest(t *testing.T, path, filename, content string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = fw.Write([]byte(content))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	var env envelope
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestDownloadTemplate(t *testing.T) {
	mux := BuildRoutes(newDeps(t, &fakeRunner{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/countryside/download_template", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("content-disposition"), "农村公路导入模板.csv")
	assert.Contains(t, rec.Body.String(), "表头")

	// 城市道路模板未落盘
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/city/download_template", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "模板文件不存在", decodeEnvelope(t, rec).Message)
}

func TestImportDataMethodCheck(t *testing.T) {
	mux := BuildRoutes(newDeps(t, &fakeRunner{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/countryside/import_data", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestImportDataExtensionCheck(t *testing.T) {
	mux := BuildRoutes(newDeps(t, &fakeRunner{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/countryside/import_data", "数据.xlsx", "内容"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "文件格式错误")
}

func TestImportDataMissingFile(t *testing.T) {
	mux := BuildRoutes(newDeps(t, &fakeRunner{}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/countryside/import_data", nil)
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "缺少上传文件", decodeEnvelope(t, rec).Message)
}

func TestImportDataSuccess(t *testing.T) {
	runner := &fakeRunner{result: &report.Result{
		Success:       true,
		Message:       "所有数据处理成功: 共2行",
		TotalRows:     2,
		ProcessedRows: 2,
		RoadResults:   []*report.RoadResult{{RoadName: "X001乡道", Level1ID: 1}},
	}}
	mux := BuildRoutes(newDeps(t, runner))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/countryside/import_data", "导入.csv", "表格内容"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "表格内容", runner.got)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, 0, env.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(2), data["total_rows"])
	assert.NotNil(t, data["road_results"])
}

func TestImportDataBusinessFailure(t *testing.T) {
	errs := make([]string, 15)
	for i := range errs {
		errs[i] = "第3行处理失败"
	}
	runner := &fakeRunner{result: &report.Result{
		Success:    false,
		Message:    "部分数据处理失败: 成功0行，失败15行",
		TotalRows:  15,
		FailedRows: 15,
		Errors:     errs,
	}}
	mux := BuildRoutes(newDeps(t, runner))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/countryside/import_data", "导入.csv", "表格内容"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, 1, env.Code)
	// 错误明细截断到前10条
	data := env.Data.(map[string]any)
	assert.Len(t, data["errors"].([]any), 10)
}

func TestImportDataRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("表格解析失败")}
	mux := BuildRoutes(newDeps(t, runner))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, uploadRequest(t, "/city/import_data", "导入.csv", "坏内容"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "文件处理异常")
}

type failStats struct{}

func (failStats) GetTotals(context.Context) (*store.Totals, error) {
	return nil, errors.New("连接中断")
}

func TestStatsError(t *testing.T) {
	deps := newDeps(t, &fakeRunner{})
	deps.Stats = failStats{}
	mux := BuildRoutes(deps)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "统计查询失败", decodeEnvelope(t, rec).Message)
}

func TestStats(t *testing.T) {
	mux := BuildRoutes(newDeps(t, &fakeRunner{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(5), body["jobs"])
	assert.Equal(t, float64(120), body["rows"])
	assert.Equal(t, float64(3), body["failed"])
}
