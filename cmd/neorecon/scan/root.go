package scan

import (
	"time"

	"github.com/spf13/cobra"

	"neorecon/internal/config"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
)

// ConfigProvider 返回根命令加载好的配置
type ConfigProvider func() *config.Config

// runFlags 探测参数 flag, 仅显式设置的 flag 覆盖配置文件
type runFlags struct {
	timeout       float64
	maxConcurrent int
	rateLimit     float64
	proxy         string
	noCache       bool
	adaptive      bool
}

var (
	globalOutputOptions options.OutputOptions
	globalRunFlags      runFlags
)

// NewScanCmd 创建 scan 父命令
func NewScanCmd(cfg ConfigProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "执行账号侦察",
		Long: `按用户名或邮箱在数百个站点上检测账号是否存在。
请使用具体的子命令。`,
	}

	pFlags := cmd.PersistentFlags()
	pFlags.BoolVar(&globalOutputOptions.JSON, "json", false, "以 JSON 输出结果到 stdout (不显示过程)")
	pFlags.BoolVar(&globalOutputOptions.SaveJSON, "save-json", false, "在保存目录写入 JSON 报告")
	pFlags.BoolVar(&globalOutputOptions.CSV, "csv", false, "在保存目录写入 CSV 报告")
	pFlags.BoolVar(&globalOutputOptions.Excel, "xlsx", false, "在保存目录写入 Excel 报告")
	pFlags.BoolVar(&globalOutputOptions.Dump, "dump", false, "保存命中站点的响应体")
	pFlags.BoolVar(&globalOutputOptions.Export, "export", false, "下载头像等图片元数据")
	pFlags.StringVar(&globalOutputOptions.ResultsDir, "results-dir", "", "结果根目录 (默认取配置 export.results_dir)")
	pFlags.BoolVarP(&globalOutputOptions.Verbose, "verbose", "v", false, "显示未命中与出错的站点")

	pFlags.Float64Var(&globalRunFlags.timeout, "timeout", 30, "单个请求超时 (秒)")
	pFlags.IntVar(&globalRunFlags.maxConcurrent, "max-concurrent-requests", 30, "最大并发请求数")
	pFlags.Float64Var(&globalRunFlags.rateLimit, "rate-limit", 0, "每秒请求数上限 (0 表示不限)")
	pFlags.StringVar(&globalRunFlags.proxy, "proxy", "", "代理地址 (http/https/socks5)")
	pFlags.BoolVar(&globalRunFlags.noCache, "no-cache", false, "禁用结果缓存")
	pFlags.BoolVar(&globalRunFlags.adaptive, "adaptive", false, "超时增多时自动收缩并发")

	cmd.AddCommand(NewUsernameScanCmd(cfg))
	cmd.AddCommand(NewEmailScanCmd(cfg))

	return cmd
}

// addFilterFlags 注册规则筛选相关 flag
func addFilterFlags(cmd *cobra.Command, o *options.ScanOptions) {
	flags := cmd.Flags()
	flags.StringVar(&o.Filter, "filter", "", "规则筛选表达式, e.g. \"cat=social and e_code=200\"")
	flags.BoolVar(&o.NoNSFW, "no-nsfw", false, "排除成人内容站点")
	flags.BoolVar(&o.NoUpdate, "no-update", false, "跳过规则列表同步")
}

// resolveRunOptions 配置文件为底, 叠加显式设置的 flag 与输出参数
func resolveRunOptions(cmd *cobra.Command, cfg *config.Config) options.RunOptions {
	run := options.FromConfig(cfg)
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		run.Timeout = time.Duration(globalRunFlags.timeout * float64(time.Second))
	}
	if flags.Changed("max-concurrent-requests") {
		run.MaxConcurrentRequests = globalRunFlags.maxConcurrent
	}
	if flags.Changed("rate-limit") {
		run.RateLimit = globalRunFlags.rateLimit
	}
	if flags.Changed("proxy") {
		run.Proxy = globalRunFlags.proxy
	}
	if flags.Changed("adaptive") {
		run.AdaptiveConcurrency = globalRunFlags.adaptive
	}
	if globalRunFlags.noCache {
		run.UseCache = false
	}
	globalOutputOptions.ApplyToRun(&run)
	return run
}

// tasksFrom 校验参数并展开为任务
func tasksFrom(o options.TaskOption) ([]*model.Task, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o.ToTasks()
}
