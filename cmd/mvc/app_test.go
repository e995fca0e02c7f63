package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderi421/mvc/internal/config"
	"github.com/coderi421/mvc/orm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app {
	cfg := config.Default()
	cfg.Database.DSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg.Metrics.Addr = ""
	cfg.Log.Level = "error"

	a, err := newApp(context.Background(), cfg, newLogger(cfg.Log, io.Discard))
	require.NoError(t, err)
	// 内存数据库在最后一个连接关闭的时候就没了
	a.sqlDB.SetMaxOpenConns(1)
	t.Cleanup(a.close)
	require.NoError(t, a.migrate(context.Background()))
	return a
}

func doRequest(a *app, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	recorder := httptest.NewRecorder()
	a.server.ServeHTTP(recorder, req)
	return recorder
}

func TestApp_migrate(t *testing.T) {
	a := newTestApp(t)
	// 可以重复执行
	require.NoError(t, a.migrate(context.Background()))
	cnt, err := orm.NewModel(a.db, "users").Query().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(sampleUsers), cnt)
}

func TestApp_Pages(t *testing.T) {
	a := newTestApp(t)

	testCases := []struct {
		name         string
		target       string
		wantCode     int
		wantLocation string
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "home",
			target:       "/",
			wantCode:     http.StatusFound,
			wantLocation: "/users",
		},
		{
			name:         "first page",
			target:       "/users",
			wantCode:     http.StatusOK,
			wantContains: []string{"user01", "user10", "第 1 / 3 页，共 25 条", "/users?page=2", "/resources/app.css"},
			wantAbsent:   []string{"user11", "上一页"},
		},
		{
			name:         "last page",
			target:       "/users?page=3",
			wantCode:     http.StatusOK,
			wantContains: []string{"user21", "user25", "/users?page=2"},
			wantAbsent:   []string{"user20", "下一页"},
		},
		{
			name:         "out of range",
			target:       "/users?page=9",
			wantCode:     http.StatusOK,
			wantContains: []string{"没有数据"},
		},
		{
			name:         "invalid page",
			target:       "/users?page=abc",
			wantCode:     http.StatusFound,
			wantLocation: "/users",
		},
		{
			name:         "show",
			target:       "/users/5",
			wantCode:     http.StatusOK,
			wantContains: []string{"user05", "user05@example.com"},
		},
		{
			name:         "unknown route",
			target:       "/users/5/edit",
			wantCode:     http.StatusFound,
			wantLocation: "/miscellaneous/404",
		},
		{
			name:         "not found page",
			target:       "/miscellaneous/404",
			wantCode:     http.StatusNotFound,
			wantContains: []string{"页面不存在"},
		},
		{
			name:         "error page",
			target:       "/error/500",
			wantCode:     http.StatusInternalServerError,
			wantContains: []string{"服务器开小差了"},
		},
		{
			name:         "resource",
			target:       "/resources/app.css",
			wantCode:     http.StatusOK,
			wantContains: []string{".pager"},
		},
		{
			name:     "missing resource",
			target:   "/resources/app.js",
			wantCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(a, tc.target)
			assert.Equal(t, tc.wantCode, recorder.Code)
			assert.Equal(t, tc.wantLocation, recorder.Header().Get("Location"))
			body := recorder.Body.String()
			for _, s := range tc.wantContains {
				assert.Contains(t, body, s)
			}
			for _, s := range tc.wantAbsent {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestApp_FlashOnMissingUser(t *testing.T) {
	a := newTestApp(t)

	recorder := doRequest(a, "/users/999")
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/users", recorder.Header().Get("Location"))
	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	recorder = doRequest(a, "/users", cookies...)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "用户 999 不存在")

	// 消息只显示一次
	recorder = doRequest(a, "/users", cookies...)
	assert.NotContains(t, recorder.Body.String(), "不存在")
}

func TestApp_API(t *testing.T) {
	a := newTestApp(t)

	recorder := doRequest(a, "/api/users?page=2&per_page=5")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
	var page struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
		CurrentPage int   `json:"current_page"`
		PerPage     int   `json:"per_page"`
		Total       int64 `json:"total"`
		LastPage    int   `json:"last_page"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 5, page.PerPage)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 5, page.LastPage)
	require.Len(t, page.Data, 5)
	assert.Equal(t, int64(6), page.Data[0].ID)
	assert.Equal(t, "user06", page.Data[0].Name)

	testCases := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{
			name:     "show",
			target:   "/api/users/3",
			wantCode: http.StatusOK,
			wantBody: `{"age":21,"email":"user03@example.com","id":3,"name":"user03"}`,
		},
		{
			name:     "missing",
			target:   "/api/users/99",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid id",
			target:   "/api/users/abc",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative page",
			target:   "/api/users?page=-1",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid per page",
			target:   "/api/users?per_page=x",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(a, tc.target)
			assert.Equal(t, tc.wantCode, recorder.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, recorder.Body.String())
			}
		})
	}
}

func TestPrintRoutes(t *testing.T) {
	a := newTestApp(t)
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	require.NoError(t, printRoutes(cmd, a))
	out := buf.String()
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "/users/{id}")
	assert.Contains(t, out, "/resources/{file}")
}

func TestSeedSQL(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO users (id, name, email, age) VALUES (1, 'user01', 'user01@example.com', 19), (2, 'user02', 'user02@example.com', 20)",
		seedSQL(2))
}
