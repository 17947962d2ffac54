package server

import (
	"github.com/gin-gonic/gin"

	"neorecon/internal/config"
	"neorecon/internal/core/registry"
	"neorecon/internal/core/runner"
)

// Router 服务模式路由
type Router struct {
	engine  *gin.Engine
	handler *Handler
}

// NewRouter 创建路由并注册中间件与处理器
func NewRouter(cfg *config.Config, reg *registry.Registry, manager *runner.RunnerManager) *Router {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	r := &Router{
		engine:  engine,
		handler: NewHandler(cfg, reg, manager),
	}
	r.registerRoutes()
	return r
}

// Engine 返回 gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) registerRoutes() {
	// 全局中间件
	r.engine.Use(RecoveryMiddleware())
	r.engine.Use(AccessLogMiddleware("/health"))

	// 健康检查 (不需要限流)
	r.engine.GET("/health", r.handler.Health)
	r.engine.GET("/version", r.handler.Version)

	api := r.engine.Group("/api/v1")
	{
		api.GET("/status", r.handler.Status)

		scan := api.Group("/scan")
		scan.Use(RateLimitMiddleware(2, 4))
		scan.POST("/username", r.handler.ScanUsername)
		scan.POST("/email", r.handler.ScanEmail)
	}
}
