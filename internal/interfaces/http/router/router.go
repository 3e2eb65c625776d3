// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"novel-platform-api/internal/config"
	"novel-platform-api/internal/interfaces/http/handler"
	"novel-platform-api/internal/interfaces/http/middleware"
	"novel-platform-api/pkg/utils"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Novel        *handler.NovelHandler
	Chapter      *handler.ChapterHandler
	Community    *handler.CommunityHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
	User         *handler.UserHandler
	Realtime     *handler.RealtimeHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	jwt      *utils.JWTManager
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers *Handlers, jwt *utils.JWTManager, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.ConfigureBinding()

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		jwt:      jwt,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	metricsPath := r.cfg.Observability.Metrics.Path

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name, "/health", "/ready", "/live", metricsPath))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(metricsPath, "/v1/ws"))
	}

	r.engine.Use(middleware.Audit(middleware.AuditConfig{
		Enabled:   r.cfg.Observability.Logging.Audit,
		SkipPaths: append(append([]string{}, middleware.DefaultAuditSkipPaths...), metricsPath),
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	readLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  r.cfg.Security.RateLimit.Enabled,
		Requests: r.cfg.Security.RateLimit.Requests,
		Window:   r.cfg.Security.RateLimit.Window,
		Scope:    "read",
	}, r.limiter)

	RegisterV1Routes(r.engine.Group("/v1"), r.handlers, r.jwt, readLimit)
}
