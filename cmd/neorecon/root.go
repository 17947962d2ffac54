/*
 * @author: Sun977
 * @date: 2026.01.21
 * @description: Cobra Root Command 定义
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"neorecon/cmd/neorecon/scan"
	"neorecon/internal/config"
	"neorecon/internal/pkg/logger"
)

var (
	cfgFile  string
	envFile  string
	logLevel string

	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "neorecon",
	Short: "NeoRecon 账号侦察工具",
	Long: `NeoRecon 根据用户名或邮箱, 在数百个站点上检测账号是否存在并提取公开资料。

示例:
  1.按用户名检测
	neorecon scan username alice
  2.按邮箱检测并输出 JSON
	neorecon scan email alice@example.com --json
  3.更新站点列表
	neorecon update
  4.启动服务模式
	neorecon server --listen :8090
`,
	SilenceUsage: true,
	// PersistentPreRunE: 全局初始化逻辑，确保所有子命令都能使用配置与日志
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := config.Load(cfgFile, envFile)
		if err != nil {
			return err
		}
		appConfig = cfg
		initCLILogger(cmd, cfg)
		return nil
	},
}

func Execute() {
	// 全局 Panic Recovery
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] neorecon crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", ".env 文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	rootCmd.AddCommand(scan.NewScanCmd(currentConfig))
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newServerCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// currentConfig 返回已加载的配置, 未加载时返回默认配置
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

// initCLILogger 初始化日志
// CLI 模式下未显式指定 --log-level 时只输出 fatal, 日志写入 stderr 以免干扰 JSON 输出;
// 服务模式使用配置文件中的日志设置
func initCLILogger(cmd *cobra.Command, cfg *config.Config) {
	logConfig := *cfg.Log
	explicit := cmd.Flags().Changed("log-level")
	if explicit {
		logConfig.Level = logLevel
	}

	if cmd.Name() != "server" {
		if !explicit {
			logConfig.Level = "fatal"
		}
		logConfig.Format = "text"
		logConfig.Output = "stderr"
		logConfig.Caller = false
	}

	// 配置 pterm
	switch logConfig.Level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	default:
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	if _, err := logger.InitLogger(&logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
	}
}
