package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/photometa/internal/logger"
)

// TraceIDKey 上下文中的追踪ID键
const TraceIDKey = "trace_id"

// responseWriter 自定义响应写入器，用于捕获响应数据
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 捕获响应数据
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLoggerConfig 请求日志中间件配置
type RequestLoggerConfig struct {
	SkipPaths       []string // 跳过记录的路径
	MaxBodySize     int      // 最大记录的请求体大小（字节）
	IncludeBody     bool     // 是否记录JSON请求体
	IncludeResponse bool     // 是否记录响应体
}

// DefaultRequestLoggerConfig 默认配置
// 调试模式下记录请求体与响应体
func DefaultRequestLoggerConfig() *RequestLoggerConfig {
	debug := gin.Mode() == gin.DebugMode
	return &RequestLoggerConfig{
		SkipPaths:       []string{"/health", "/metrics", "/favicon.ico"},
		MaxBodySize:     64 * 1024,
		IncludeBody:     debug,
		IncludeResponse: debug,
	}
}

// RequestLogger 请求日志记录中间件
// 为每个请求分配追踪ID，并按状态码级别写入结构化日志
func RequestLogger(config ...*RequestLoggerConfig) gin.HandlerFunc {
	cfg := DefaultRequestLoggerConfig()
	if len(config) > 0 && config[0] != nil {
		cfg = config[0]
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Request-ID", traceID)

		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody interface{}
		if cfg.IncludeBody && strings.HasPrefix(c.ContentType(), "application/json") {
			requestBody = readRequestBody(c, cfg.MaxBodySize)
		}

		var writer *responseWriter
		if cfg.IncludeResponse {
			writer = &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
			c.Writer = writer
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		fields := logrus.Fields{
			"type":          "request_log",
			"trace_id":      traceID,
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"query":         c.Request.URL.RawQuery,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"status_code":   status,
			"response_size": c.Writer.Size(),
			"duration_ms":   duration.Milliseconds(),
		}
		if requestBody != nil {
			fields["body"] = requestBody
		}
		if writer != nil && writer.body.Len() > 0 {
			fields["response_body"] = parseBody(writer.body.Bytes())
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Errorf("[REQUEST_LOG] %s %s - %d", c.Request.Method, c.Request.URL.Path, status)
		case status >= 400:
			entry.Warnf("[REQUEST_LOG] %s %s - %d", c.Request.Method, c.Request.URL.Path, status)
		default:
			entry.Infof("[REQUEST_LOG] %s %s - %d", c.Request.Method, c.Request.URL.Path, status)
		}
	}
}

// readRequestBody 读取请求体并重置，以便后续处理器可以读取
func readRequestBody(c *gin.Context, maxSize int) interface{} {
	if c.Request.Body == nil {
		return nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return map[string]string{"error": "failed to read request body"}
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) > maxSize {
		return map[string]int{"truncated_size": len(body)}
	}
	return parseBody(body)
}

// parseBody 尝试解析JSON，失败时返回原始字符串
func parseBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var jsonBody interface{}
	if err := json.Unmarshal(body, &jsonBody); err == nil {
		return jsonBody
	}
	return string(body)
}
