/**
 * 探测编排器
 * @description: 单个标识符对一组规则的有界并发扇出: 准入门、逐规则输入变换、分批、缓存、失败隔离, 结果按提交顺序返回
 */

package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"neorecon/internal/core/cache"
	"neorecon/internal/core/classifier"
	"neorecon/internal/core/gate"
	"neorecon/internal/core/metadata"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/core/precheck"
	"neorecon/internal/core/transform"
	"neorecon/internal/pkg/client"
	"neorecon/internal/pkg/logger"
)

// Presenter 交互式输出 (仅在非 JSON 模式下调用, 需并发安全)
type Presenter interface {
	Found(identifier string, outcome model.ProbeOutcome)
	Missed(identifier string, outcome model.ProbeOutcome)
}

// MetadataEnricher AI/NLP 元数据协作者
type MetadataEnricher interface {
	Enrich(ctx context.Context, rule *model.SiteRule, resp *model.Response) ([]model.Metadata, error)
}

// ProfileEnricher 基于 (标识符, 会话令牌) 的站点专用富化协作者
type ProfileEnricher interface {
	Supports(rule *model.SiteRule) bool
	Enrich(ctx context.Context, identifier, session string) ([]model.Metadata, error)
}

// Dumper 保存命中响应体
type Dumper interface {
	Dump(site string, resp *model.Response) error
}

// Orchestrator 单次运行的编排器
type Orchestrator struct {
	doer      client.Doer
	cache     cache.Cache
	presenter Presenter
	images    metadata.ImageDownloader
	dumper    Dumper
	ai        MetadataEnricher
	profile   ProfileEnricher
}

// Option 编排器可选项
type Option func(*Orchestrator)

// WithCache 共享结果缓存
func WithCache(c cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithPresenter 交互式输出
func WithPresenter(p Presenter) Option {
	return func(o *Orchestrator) { o.presenter = p }
}

// WithImageDownloader 图片下载协作者 (仅在 RunOptions.DownloadImages 时生效)
func WithImageDownloader(d metadata.ImageDownloader) Option {
	return func(o *Orchestrator) { o.images = d }
}

// WithDumper 响应体转储 (仅在 RunOptions.Dump 时生效)
func WithDumper(d Dumper) Option {
	return func(o *Orchestrator) { o.dumper = d }
}

// WithMetadataEnricher AI 元数据协作者 (仅在 RunOptions.AI 时生效)
func WithMetadataEnricher(e MetadataEnricher) Option {
	return func(o *Orchestrator) { o.ai = e }
}

// WithProfileEnricher 站点专用富化协作者 (仅在设置了会话令牌时生效)
func WithProfileEnricher(e ProfileEnricher) Option {
	return func(o *Orchestrator) { o.profile = e }
}

// NewOrchestrator 创建编排器
func NewOrchestrator(doer client.Doer, opts ...Option) *Orchestrator {
	o := &Orchestrator{doer: doer}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil {
		o.cache = cache.NewMemory()
	}
	return o
}

// run 单次运行的上下文, 只读共享给所有任务
type run struct {
	identifier string
	opts       options.RunOptions
	gate       gate.Gate
	limiter    *rate.Limiter
	auth       *precheck.Authenticator
	extractor  *metadata.Extractor
}

// Run 对一组规则执行探测, 返回与 rules 顺序一致的结果
func (o *Orchestrator) Run(ctx context.Context, identifier string, rules []*model.SiteRule, opts options.RunOptions) []model.ProbeOutcome {
	r := &run{
		identifier: identifier,
		opts:       opts,
		auth:       precheck.NewAuthenticator(o.doer, opts.UserAgent, opts.Timeout),
		extractor:  metadata.NewExtractor(nil),
	}
	if opts.AdaptiveConcurrency {
		r.gate = gate.NewAdaptive(opts.MaxConcurrentRequests, 1, opts.MaxConcurrentRequests)
	} else {
		r.gate = gate.NewFixed(opts.MaxConcurrentRequests)
	}
	if opts.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if opts.DownloadImages && o.images != nil {
		r.extractor = metadata.NewExtractor(timedDownloader{next: o.images, timeout: opts.Timeout})
	}

	results := make([]model.ProbeOutcome, len(rules))
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = len(rules) + 1
	}
	indices := lo.Range(len(rules))
	for bi, batch := range lo.Chunk(indices, batchSize) {
		if bi > 0 && len(rules) > opts.BatchPauseThreshold && opts.BatchPause > 0 {
			select {
			case <-time.After(opts.BatchPause):
			case <-ctx.Done():
			}
		}

		var wg sync.WaitGroup
		for _, i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = o.probe(ctx, r, rules[i])
				o.present(r, results[i])
			}(i)
		}
		wg.Wait()
	}
	return results
}

// probe 单条规则的完整探测, 任何失败都转换为 ERROR 结果
func (o *Orchestrator) probe(ctx context.Context, r *run, rule *model.SiteRule) (outcome model.ProbeOutcome) {
	outcome = model.ProbeOutcome{Name: rule.Name, Category: rule.Category, Status: model.StatusError}
	defer func() {
		if p := recover(); p != nil {
			outcome.Status = model.StatusError
			outcome.Error = fmt.Sprintf("panic: %v", p)
			logger.Errorf("probe %s panicked: %v", rule.Name, p)
		}
	}()

	// 总是基于原始标识符变换
	account, err := transform.Apply(rule.InputOperation, r.identifier)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	url := rule.BuildURL(account)
	outcome.URL = url

	key := cache.Key{URL: url, Body: rule.BuildBody(account), UserAgent: r.opts.UserAgent, Proxy: r.opts.Proxy}
	fetch := func() model.ProbeOutcome { return o.fetch(ctx, r, rule, account, url) }
	if r.opts.UseCache {
		outcome, _ = o.cache.Do(key, fetch)
	} else {
		outcome = fetch()
	}
	outcome.Name = rule.Name
	outcome.Category = rule.Category
	outcome.URL = url
	return outcome
}

// fetch 持有准入令牌执行预检、主请求、判定与元数据提取
func (o *Orchestrator) fetch(ctx context.Context, r *run, rule *model.SiteRule, account, url string) (outcome model.ProbeOutcome) {
	outcome = model.NewOutcome(rule, url)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			outcome.Status = model.StatusError
			outcome.Error = fmt.Sprintf("panic: %v", p)
		}
		logger.LogProbe(logger.ProbeLogEntry{
			Site:       rule.Name,
			URL:        url,
			Status:     string(outcome.Status),
			StatusCode: outcome.StatusCode,
			Duration:   time.Since(start).Milliseconds(),
			Error:      outcome.Error,
		})
	}()

	if err := r.gate.Acquire(ctx); err != nil {
		return failed(outcome, err)
	}
	defer r.gate.Release()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return failed(outcome, err)
		}
	}

	// 预检每个步骤各自计时
	headers, err := r.auth.Run(ctx, rule, account)
	if err != nil {
		return failed(outcome, err)
	}

	reqCtx, cancel := withTimeout(ctx, r.opts.Timeout)
	resp, err := o.doer.Do(reqCtx, &client.Request{
		Method:    rule.Method,
		URL:       url,
		Body:      rule.BuildBody(account),
		Headers:   headers,
		UserAgent: r.opts.UserAgent,
	})
	cancel()
	if err != nil {
		if fb, ok := r.gate.(gate.Feedback); ok {
			fb.OnFailure()
		}
		return failed(outcome, err)
	}
	if fb, ok := r.gate.(gate.Feedback); ok {
		fb.OnSuccess()
	}

	outcome.StatusCode = resp.StatusCode
	outcome.Status = classifier.Classify(rule, resp)
	if outcome.Status == model.StatusFound {
		outcome.Metadata = o.collectMetadata(ctx, r, rule, resp)
		if r.opts.Dump && o.dumper != nil {
			if err := o.dumper.Dump(rule.Name, resp); err != nil {
				logger.Warnf("dump %s failed: %v", rule.Name, err)
			}
		}
	}
	return outcome
}

// collectMetadata 声明式字段 + 可选协作者, 统一去重排序
func (o *Orchestrator) collectMetadata(ctx context.Context, r *run, rule *model.SiteRule, resp *model.Response) []model.Metadata {
	var items []model.Metadata
	if len(rule.Metadata) > 0 {
		items = r.extractor.Extract(ctx, rule.Name, rule.Metadata, resp)
	}
	if o.profile != nil && r.opts.SessionToken != "" && o.profile.Supports(rule) {
		pctx, cancel := withTimeout(ctx, r.opts.Timeout)
		extra, err := o.profile.Enrich(pctx, r.identifier, r.opts.SessionToken)
		cancel()
		if err != nil {
			logger.Warnf("profile enrichment for %s failed: %v", rule.Name, err)
		} else {
			items = append(items, extra...)
		}
	}
	if o.ai != nil && r.opts.AI {
		actx, cancel := withTimeout(ctx, r.opts.Timeout)
		extra, err := o.ai.Enrich(actx, rule, resp)
		cancel()
		if err != nil {
			logger.Warnf("metadata enrichment for %s failed: %v", rule.Name, err)
		} else {
			items = append(items, extra...)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return metadata.Normalize(items)
}

// present 输出交互信息, 不影响返回的结果数据
func (o *Orchestrator) present(r *run, outcome model.ProbeOutcome) {
	if o.presenter == nil || r.opts.JSON {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Warnf("presenter panicked on %s: %v", outcome.Name, p)
		}
	}()
	if outcome.Status == model.StatusFound {
		o.presenter.Found(r.identifier, outcome.Clone())
	} else if r.opts.Verbose {
		o.presenter.Missed(r.identifier, outcome.Clone())
	}
}

// timedDownloader 每张图片单独计时
type timedDownloader struct {
	next    metadata.ImageDownloader
	timeout time.Duration
}

func (d timedDownloader) DownloadImage(ctx context.Context, site, url string) error {
	ctx, cancel := withTimeout(ctx, d.timeout)
	defer cancel()
	return d.next.DownloadImage(ctx, site, url)
}

// withTimeout 单次网络操作的超时, d <= 0 时不设超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func failed(outcome model.ProbeOutcome, err error) model.ProbeOutcome {
	outcome.Status = model.StatusError
	outcome.Error = err.Error()
	return outcome
}
