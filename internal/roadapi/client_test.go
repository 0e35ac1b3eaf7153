package roadapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captured struct {
	method  string
	path    string
	headers http.Header
	body    map[string]any
}

func apiServer(t *testing.T, got *[]captured, reply string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(b, &body))
		*got = append(*got, captured{method: r.Method, path: r.URL.Path, headers: r.Header.Clone(), body: body})
		_, _ = w.Write([]byte(reply))
	}))
}

func TestCreate(t *testing.T) {
	var got []captured
	srv := apiServer(t, &got, `{"code":0,"msg":"ok","data":3021}`)
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", srv.Client())
	scope := Scope{ProjectID: 77, TenantID: 9}
	id, err := c.Create(context.Background(), scope, &Road{
		Name:           "X001乡道",
		Hierarchy:      1,
		AdministerFlag: true,
		Length:         1.2,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3021), id)

	assert.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "/create", got[0].path)
	assert.Equal(t, "Bearer tok-123", got[0].headers.Get("Authorization"))
	assert.Equal(t, "application/json", got[0].headers.Get("Content-Type"))
	assert.Equal(t, "1", got[0].headers.Get("client-type"))
	assert.Equal(t, "77", got[0].headers.Get("project-id"))
	assert.Equal(t, "9", got[0].headers.Get("tenant-id"))

	assert.Equal(t, "X001乡道", got[0].body["name"])
	assert.Equal(t, float64(1), got[0].body["hierarchy"])
	assert.Equal(t, true, got[0].body["administerFlag"])
	// 零值字段不应出现在载荷里
	_, hasParent := got[0].body["parentId"]
	assert.False(t, hasParent)
}

func TestCreateBusinessError(t *testing.T) {
	var got []captured
	srv := apiServer(t, &got, `{"code":500,"msg":"名称重复"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	_, err := c.Create(context.Background(), Scope{}, &Road{Name: "重复路"})
	assert.ErrorContains(t, err, "接口返回失败: 名称重复")
}

func TestCreateBadData(t *testing.T) {
	var got []captured
	srv := apiServer(t, &got, `{"code":0,"msg":"ok","data":{"unexpected":true}}`)
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	_, err := c.Create(context.Background(), Scope{}, &Road{Name: "路"})
	assert.ErrorContains(t, err, "节点id")
}

func TestUpdate(t *testing.T) {
	var got []captured
	srv := apiServer(t, &got, `{"code":0,"msg":"ok"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	err := c.Update(context.Background(), Scope{ProjectID: 1, TenantID: 2}, &Road{
		ID:             3021,
		Hierarchy:      3,
		AdministerFlag: true,
		GeoJSON:        `[{"type":"Feature"}]`,
	})
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/update", got[0].path)
	assert.Equal(t, float64(3021), got[0].body["id"])
	assert.Equal(t, `[{"type":"Feature"}]`, got[0].body["geojson"])
}

func TestUpdateRequiresID(t *testing.T) {
	c := NewClient("http://unused", "tok", nil)
	err := c.Update(context.Background(), Scope{}, &Road{Hierarchy: 3})
	assert.ErrorContains(t, err, "缺少节点id")
}

func TestHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	_, err := c.Create(context.Background(), Scope{}, &Road{Name: "路"})
	assert.ErrorContains(t, err, "502")
}
