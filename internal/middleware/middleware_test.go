package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/weiwangfds/photometa/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestLogger_SetsTraceIDAndKeepsBody(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(&RequestLoggerConfig{MaxBodySize: 1024, IncludeBody: true, IncludeResponse: true}))

	var seenBody string
	var seenTrace string
	r.POST("/echo", func(c *gin.Context) {
		data, _ := c.GetRawData()
		seenBody = string(data)
		seenTrace = c.GetString(TraceIDKey)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"filename":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"filename":"a"}`, seenBody)
	assert.NotEmpty(t, seenTrace)
	assert.Equal(t, seenTrace, w.Header().Get("X-Request-ID"))
}

func TestRequestLogger_ReusesIncomingRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(TraceIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
}

func TestLanguage(t *testing.T) {
	r := gin.New()
	r.Use(Language())
	r.GET("/lang", func(c *gin.Context) { c.String(http.StatusOK, response.Lang(c)) })

	cases := []struct {
		name   string
		url    string
		header string
		want   string
	}{
		{"请求头", "/lang", "zh-CN,zh;q=0.9", "zh-CN"},
		{"查询参数优先", "/lang?lang=en-US", "zh-CN", "en-US"},
		{"不支持的语言", "/lang", "fr", "en-US"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			req.Header.Set("Accept-Language", tc.header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}
