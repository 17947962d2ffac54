/**
 * 服务模式
 * @author: sun977
 * @date: 2025.10.21
 * @description: 以 HTTP API 形式提供用户名/邮箱扫描, 规则文件变化时自动重载
 */

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"neorecon/internal/config"
	"neorecon/internal/core/model"
	"neorecon/internal/core/registry"
	"neorecon/internal/core/runner"
	"neorecon/internal/pkg/logger"
)

// App 服务模式应用
type App struct {
	config     *config.Config
	registry   *registry.Registry
	watcher    *registry.Watcher
	router     *Router
	httpServer *http.Server
}

// NewApp 创建服务模式应用
// newDoer 为空时使用默认 HTTP 客户端
func NewApp(cfg *config.Config, reg *registry.Registry, newDoer runner.DoerFactory) (*App, error) {
	if cfg == nil || cfg.Server == nil {
		return nil, fmt.Errorf("server config is required")
	}

	if err := reg.LoadAll(); err != nil {
		return nil, fmt.Errorf("failed to load rule lists: %w", err)
	}

	manager := runner.NewRunnerManager(reg, newDoer)
	r := NewRouter(cfg, reg, manager)

	app := &App{
		config:   cfg,
		registry: reg,
		router:   r,
		httpServer: &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      r.Engine(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	if cfg.Server.WatchLists {
		w, err := registry.NewWatcher(reg, 500*time.Millisecond)
		if err != nil {
			return nil, fmt.Errorf("failed to create list watcher: %w", err)
		}
		w.OnReload(func(kind model.RuleKind, err error) {
			if err != nil {
				logger.LogSystemEvent("Server", "ListReload", fmt.Sprintf("reload %s rules failed, keeping previous set: %v", kind, err), logger.WarnLevel, nil)
				return
			}
			logger.LogSystemEvent("Server", "ListReload", fmt.Sprintf("%s rules reloaded", kind), logger.InfoLevel,
				map[string]interface{}{"count": reg.Count(kind)})
		})
		app.watcher = w
	}
	return app, nil
}

// Handler 返回 HTTP 处理器
func (a *App) Handler() http.Handler {
	return a.router.Engine()
}

// Start 启动 HTTP 服务 (非阻塞)
func (a *App) Start() error {
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			return fmt.Errorf("failed to start list watcher: %w", err)
		}
	}

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start HTTP server: %v", err)
		}
	}()

	logger.LogSystemEvent("Server", "Start", "NeoRecon server started", logger.InfoLevel,
		map[string]interface{}{"listen": a.config.Server.Listen})
	return nil
}

// Stop 停止服务
func (a *App) Stop(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	logger.LogSystemEvent("Server", "Stop", "NeoRecon server stopped", logger.InfoLevel, nil)
	return nil
}
