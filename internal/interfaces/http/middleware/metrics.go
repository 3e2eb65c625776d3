package middleware

import (
	"strconv"
	"time"

	"novel-platform-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics Prometheus HTTP 指标中间件
//
// skipPaths 中的路由不计入：websocket 连接时长会拉偏延迟直方图，
// 抓取端点本身也不统计。未匹配路由统一记为 unmatched，避免标签爆炸。
func Metrics(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skip[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		start := time.Now()

		if n := c.Request.ContentLength; n > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(n))
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if n := c.Writer.Size(); n > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(n))
		}
	}
}
