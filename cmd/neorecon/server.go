/*
 * @author: Sun977
 * @date: 2026.01.21
 * @description: Server 模式子命令
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"neorecon/internal/app/server"
	"neorecon/internal/core/registry"
	"neorecon/internal/pkg/logger"
)

func newServerCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "启动 HTTP 服务模式",
		Long: `以 HTTP API 方式提供账号侦察, 规则文件变化时自动重新加载。

示例:
  neorecon server --listen :8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return runServer(cmd.Context(), cfg.Server.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "监听地址 (默认取配置 server.listen)")
	return cmd
}

func runServer(ctx context.Context, listen string) error {
	cfg := currentConfig()
	reg := registry.New(registry.PathsFromConfig(cfg.Lists))

	app, err := server.NewApp(cfg, reg, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	fmt.Fprintf(os.Stderr, "NeoRecon server listening on %s\n", listen)

	// 等待中断信号以优雅地关闭服务器
	quit, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-quit.Done()
	logger.Info("Shutting down NeoRecon server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.Stop(shutdownCtx)
}
