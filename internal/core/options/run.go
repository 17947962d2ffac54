package options

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"neorecon/internal/config"
)

// RunOptions 单次运行的不可变参数, 显式传递给每个组件
type RunOptions struct {
	Timeout               time.Duration
	MaxConcurrentRequests int
	AdaptiveConcurrency   bool // 按超时自动收缩并发上限

	BatchSize           int
	BatchPauseThreshold int
	BatchPause          time.Duration
	RateLimit           float64 // 每秒请求数, 0 表示不限速

	UseCache  bool
	Proxy     string
	UserAgent string

	JSON    bool // 机器可读输出模式, 抑制交互输出
	Verbose bool

	DownloadImages bool // 导出图片等附件
	Dump           bool

	AI           bool   // 启用 AI 元数据协作者
	SessionToken string // 标识符专用富化协作者的会话令牌
}

// DefaultRunOptions 默认运行参数
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 30,
		BatchSize:             100,
		BatchPauseThreshold:   200,
		BatchPause:            500 * time.Millisecond,
		UseCache:              true,
	}
}

// FromConfig 从配置构造运行参数
func FromConfig(cfg *config.Config) RunOptions {
	o := DefaultRunOptions()
	if cfg == nil || cfg.Probe == nil {
		return o
	}
	p := cfg.Probe
	if p.Timeout > 0 {
		o.Timeout = p.Timeout
	}
	if p.MaxConcurrentRequests > 0 {
		o.MaxConcurrentRequests = p.MaxConcurrentRequests
	}
	if p.BatchSize > 0 {
		o.BatchSize = p.BatchSize
	}
	if p.BatchPauseThreshold > 0 {
		o.BatchPauseThreshold = p.BatchPauseThreshold
	}
	if p.BatchPause > 0 {
		o.BatchPause = p.BatchPause
	}
	o.AdaptiveConcurrency = p.AdaptiveConcurrency
	o.RateLimit = p.RateLimit
	o.UseCache = p.UseCache
	o.Proxy = p.Proxy
	if cfg.Enrich != nil {
		o.SessionToken = cfg.Enrich.SessionToken
	}
	return o
}

// Validate 验证参数合法性
func (o RunOptions) Validate() error {
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if o.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max concurrent requests must be at least 1")
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if o.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if o.Proxy != "" {
		u, err := url.Parse(o.Proxy)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid proxy: %s", o.Proxy)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
		}
	}
	return nil
}
