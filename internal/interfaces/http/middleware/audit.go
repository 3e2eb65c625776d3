package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"novel-platform-api/pkg/logger"
)

// AuditConfig 审计配置
type AuditConfig struct {
	Enabled   bool
	SkipPaths []string
}

// Audit 审计日志中间件，写操作以 Info 记录，读操作以 Debug 记录
func Audit(cfg AuditConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"user_id", c.GetString(ContextUserID),
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" {
			logger.Debug(c.Request.Context(), "api request", fields...)
			return
		}
		logger.Info(c.Request.Context(), "api audit", fields...)
	}
}

// DefaultAuditSkipPaths 默认跳过审计的路径
var DefaultAuditSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
