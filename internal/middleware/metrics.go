package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/photometa/internal/metrics"
)

// Metrics 记录HTTP请求指标
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
