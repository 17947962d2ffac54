package runner

import (
	"context"
	"fmt"
	"time"

	"neorecon/internal/core/filter"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/pkg/client"
	"neorecon/internal/pkg/logger"
)

// RuleSource 规则来源
type RuleSource interface {
	Rules(kind model.RuleKind) ([]*model.SiteRule, error)
}

// DoerFactory 按运行参数创建 HTTP 执行器
type DoerFactory func(opts options.RunOptions) (client.Doer, error)

// DefaultDoerFactory 基于 net/http 的执行器
func DefaultDoerFactory(opts options.RunOptions) (client.Doer, error) {
	return client.NewHTTPClient(client.Options{Timeout: opts.Timeout, Proxy: opts.Proxy})
}

// IdentifierRunner 用户名/邮箱扫描执行器
type IdentifierRunner struct {
	kind    model.RuleKind
	source  RuleSource
	newDoer DoerFactory
}

// NewIdentifierRunner 创建执行器
func NewIdentifierRunner(kind model.RuleKind, source RuleSource, newDoer DoerFactory) *IdentifierRunner {
	if newDoer == nil {
		newDoer = DefaultDoerFactory
	}
	return &IdentifierRunner{kind: kind, source: source, newDoer: newDoer}
}

// Kind 标识符类型
func (r *IdentifierRunner) Kind() model.RuleKind {
	return r.kind
}

// Run 加载规则、过滤、编排探测并生成报告
func (r *IdentifierRunner) Run(ctx context.Context, job *Job) (*model.Report, error) {
	if job == nil || job.Task == nil {
		return nil, fmt.Errorf("job task is required")
	}
	if err := job.Run.Validate(); err != nil {
		return nil, err
	}

	rules, err := r.source.Rules(r.kind)
	if err != nil {
		return nil, err
	}
	total := len(rules)

	rules, err = filter.Apply(rules, job.Filter, job.NoNSFW)
	if err != nil {
		return nil, err
	}
	if job.Filter != "" || job.NoNSFW {
		logger.Infof("filtered %s sites: %d of %d selected", r.kind, len(rules), total)
	}

	doer, err := r.newDoer(job.Run)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	orch := NewOrchestrator(doer, job.Hooks.options()...)
	start := time.Now()
	outcomes := orch.Run(ctx, job.Task.Identifier, rules, job.Run)

	return &model.Report{
		Kind:       r.kind,
		Target:     job.Task.Identifier,
		Date:       start,
		Elapsed:    time.Since(start),
		Outcomes:   outcomes,
		TotalRules: len(rules),
	}, nil
}
