package runner

import (
	"context"

	"neorecon/internal/core/cache"
	"neorecon/internal/core/metadata"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
)

// Runner 定义了标识符扫描执行器的通用接口
type Runner interface {
	// Kind 返回 Runner 处理的标识符类型
	Kind() model.RuleKind

	// Run 执行一次标识符扫描
	// 配置级错误 (规则加载失败、过滤表达式错误、过滤后无规则) 通过 error 返回;
	// 单个站点的失败只体现在报告的 ERROR 结果中
	Run(ctx context.Context, job *Job) (*model.Report, error)
}

// Job 一次标识符扫描的输入
type Job struct {
	Task   *model.Task
	Filter string
	NoNSFW bool
	Run    options.RunOptions
	Hooks  Hooks
}

// Hooks 可选协作者, 为 nil 时对应功能关闭
type Hooks struct {
	Presenter        Presenter
	Cache            cache.Cache
	ImageDownloader  metadata.ImageDownloader
	Dumper           Dumper
	MetadataEnricher MetadataEnricher
	ProfileEnricher  ProfileEnricher
}

func (h Hooks) options() []Option {
	var opts []Option
	if h.Presenter != nil {
		opts = append(opts, WithPresenter(h.Presenter))
	}
	if h.Cache != nil {
		opts = append(opts, WithCache(h.Cache))
	}
	if h.ImageDownloader != nil {
		opts = append(opts, WithImageDownloader(h.ImageDownloader))
	}
	if h.Dumper != nil {
		opts = append(opts, WithDumper(h.Dumper))
	}
	if h.MetadataEnricher != nil {
		opts = append(opts, WithMetadataEnricher(h.MetadataEnricher))
	}
	if h.ProfileEnricher != nil {
		opts = append(opts, WithProfileEnricher(h.ProfileEnricher))
	}
	return opts
}
