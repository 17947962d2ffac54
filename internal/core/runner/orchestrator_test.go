package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neorecon/internal/core/cache"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/pkg/client"
)

// fakeDoer 记录调用次数与峰值并发的内存执行器
type fakeDoer struct {
	delay   time.Duration
	handler func(req *client.Request) (*model.Response, error)

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64

	mu   sync.Mutex
	urls []string
}

func (f *fakeDoer) Do(ctx context.Context, req *client.Request) (*model.Response, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.urls = append(f.urls, req.URL)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.handler != nil {
		return f.handler(req)
	}
	return &model.Response{StatusCode: 200, Body: "profile"}, nil
}

func siteRule(i int) *model.SiteRule {
	return &model.SiteRule{
		Name:     fmt.Sprintf("site-%03d", i),
		Category: "social",
		URICheck: fmt.Sprintf("https://site-%03d.example/{account}", i),
		Method:   "GET",
		EString:  "profile",
		ECode:    200,
		MString:  "not found",
		MCode:    404,
	}
}

func testOptions() options.RunOptions {
	o := options.DefaultRunOptions()
	o.Timeout = time.Second
	o.BatchPause = 0
	o.UserAgent = "test-agent"
	return o
}

func TestRunNeverExceedsConcurrencyBound(t *testing.T) {
	rules := make([]*model.SiteRule, 500)
	for i := range rules {
		rules[i] = siteRule(i)
	}
	doer := &fakeDoer{delay: 2 * time.Millisecond}
	opts := testOptions()
	opts.MaxConcurrentRequests = 30

	outcomes := NewOrchestrator(doer).Run(context.Background(), "alice", rules, opts)

	require.Len(t, outcomes, 500)
	assert.LessOrEqual(t, doer.peak.Load(), int64(30))
	assert.Equal(t, int64(500), doer.calls.Load())
	for i, o := range outcomes {
		assert.Equal(t, rules[i].Name, o.Name)
		assert.Equal(t, model.StatusFound, o.Status)
	}
}

func TestRunPreservesSubmissionOrder(t *testing.T) {
	rules := make([]*model.SiteRule, 50)
	for i := range rules {
		rules[i] = siteRule(i)
	}
	// 越靠前的规则越慢, 完成顺序与提交顺序相反
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		var idx int
		fmt.Sscanf(req.URL, "https://site-%03d.example/", &idx)
		time.Sleep(time.Duration(50-idx) * 100 * time.Microsecond)
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	opts := testOptions()
	opts.BatchSize = 7

	outcomes := NewOrchestrator(doer).Run(context.Background(), "alice", rules, opts)
	for i, o := range outcomes {
		assert.Equal(t, rules[i].Name, o.Name)
		assert.Equal(t, "https://"+rules[i].Name+".example/alice", o.URL)
	}
}

func TestRunTimeoutIsolated(t *testing.T) {
	rules := []*model.SiteRule{siteRule(0), siteRule(1), siteRule(2)}
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		if strings.Contains(req.URL, "site-000") {
			return &model.Response{StatusCode: 404, Body: "not found"}, nil
		}
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	slow := &slowDoer{fakeDoer: doer, slowURL: "site-001"}
	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond

	outcomes := NewOrchestrator(slow).Run(context.Background(), "alice", rules, opts)

	require.Len(t, outcomes, 3)
	assert.Equal(t, model.StatusNotFound, outcomes[0].Status)
	assert.Equal(t, model.StatusError, outcomes[1].Status)
	assert.NotEmpty(t, outcomes[1].Error)
	assert.Equal(t, model.StatusFound, outcomes[2].Status)

	errorCount := 0
	for _, o := range outcomes {
		assert.NotEqual(t, model.StatusNone, o.Status)
		if o.Status == model.StatusError {
			errorCount++
		}
	}
	assert.Equal(t, 1, errorCount)
}

// slowDoer 对指定 URL 阻塞直到超时
type slowDoer struct {
	*fakeDoer
	slowURL string
}

func (s *slowDoer) Do(ctx context.Context, req *client.Request) (*model.Response, error) {
	if strings.Contains(req.URL, s.slowURL) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.fakeDoer.Do(ctx, req)
}

func TestRunCacheIdempotence(t *testing.T) {
	doer := &fakeDoer{}
	shared := cache.NewMemory()
	orch := NewOrchestrator(doer, WithCache(shared))
	rules := []*model.SiteRule{siteRule(1)}
	opts := testOptions()

	first := orch.Run(context.Background(), "alice", rules, opts)
	second := orch.Run(context.Background(), "alice", rules, opts)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), doer.calls.Load())

	// 不同 UA 是不同的缓存键
	opts.UserAgent = "other-agent"
	orch.Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, int64(2), doer.calls.Load())

	// 不同代理是不同的缓存键, 同一代理再次命中
	opts.Proxy = "socks5://127.0.0.1:1080"
	orch.Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, int64(3), doer.calls.Load())
	orch.Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, int64(3), doer.calls.Load())
	assert.Equal(t, 3, shared.Len())

	// 关闭缓存总是发起请求
	opts.UseCache = false
	orch.Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, int64(4), doer.calls.Load())
}

func TestRunErrorsAreNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		if fail.Load() {
			return nil, errors.New("connection refused")
		}
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	orch := NewOrchestrator(doer)
	rules := []*model.SiteRule{siteRule(1)}

	out := orch.Run(context.Background(), "alice", rules, testOptions())
	assert.Equal(t, model.StatusError, out[0].Status)

	fail.Store(false)
	out = orch.Run(context.Background(), "alice", rules, testOptions())
	assert.Equal(t, model.StatusFound, out[0].Status)
	assert.Equal(t, int64(2), doer.calls.Load())
}

func TestRunTransformsOriginalIdentifier(t *testing.T) {
	upper := siteRule(0)
	upper.InputOperation = "lowercase"
	local := siteRule(1)
	local.InputOperation = "strip-domain"
	hashed := siteRule(2)
	hashed.InputOperation = "md5"
	plain := siteRule(3)

	doer := &fakeDoer{}
	out := NewOrchestrator(doer).Run(context.Background(), "Alice@Example.com",
		[]*model.SiteRule{upper, local, hashed, plain}, testOptions())

	assert.Equal(t, "https://site-000.example/alice@example.com", out[0].URL)
	assert.Equal(t, "https://site-001.example/Alice", out[1].URL)
	assert.True(t, strings.HasPrefix(out[2].URL, "https://site-002.example/"))
	assert.Len(t, strings.TrimPrefix(out[2].URL, "https://site-002.example/"), 32)
	assert.Equal(t, "https://site-003.example/Alice@Example.com", out[3].URL)
}

func TestRunPreCheckFailureIsError(t *testing.T) {
	rule := siteRule(0)
	rule.PreCheck = model.PreCheck{{URL: "https://auth.example/token", ECode: 200}}
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		if strings.HasPrefix(req.URL, "https://auth.example") {
			return &model.Response{StatusCode: 403}, nil
		}
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}

	out := NewOrchestrator(doer).Run(context.Background(), "alice", []*model.SiteRule{rule}, testOptions())
	assert.Equal(t, model.StatusError, out[0].Status)
	// 主请求被跳过
	assert.Equal(t, int64(1), doer.calls.Load())
}

func TestRunTimeoutIsPerRequest(t *testing.T) {
	rule := siteRule(0)
	rule.PreCheck = model.PreCheck{{
		URL:     "https://auth.example/token",
		Extract: []model.Extraction{{From: model.ExtractFromHeader, Key: "X-Token", Header: "X-Auth"}},
	}}
	doer := &fakeDoer{delay: 40 * time.Millisecond, handler: func(req *client.Request) (*model.Response, error) {
		if strings.HasPrefix(req.URL, "https://auth.example") {
			return &model.Response{StatusCode: 200, Headers: map[string][]string{"X-Token": {"abc"}}}, nil
		}
		assert.Equal(t, "abc", req.Headers["X-Auth"])
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	opts := testOptions()
	opts.Timeout = 60 * time.Millisecond

	// 预检与主请求各自在超时内完成, 总耗时超过单次超时
	out := NewOrchestrator(doer).Run(context.Background(), "alice", []*model.SiteRule{rule}, opts)
	assert.Equal(t, model.StatusFound, out[0].Status, out[0].Error)
	assert.Equal(t, int64(2), doer.calls.Load())
}

func TestRunRecoversPanics(t *testing.T) {
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		if strings.Contains(req.URL, "site-001") {
			panic("boom")
		}
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	rules := []*model.SiteRule{siteRule(0), siteRule(1), siteRule(2)}

	out := NewOrchestrator(doer).Run(context.Background(), "alice", rules, testOptions())
	assert.Equal(t, model.StatusFound, out[0].Status)
	assert.Equal(t, model.StatusError, out[1].Status)
	assert.Contains(t, out[1].Error, "boom")
	assert.Equal(t, model.StatusFound, out[2].Status)
}

type recordingPresenter struct {
	mu     sync.Mutex
	found  []string
	missed []string
}

func (p *recordingPresenter) Found(_ string, o model.ProbeOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.found = append(p.found, o.Name)
}

func (p *recordingPresenter) Missed(_ string, o model.ProbeOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.missed = append(p.missed, o.Name)
}

func TestRunPresentation(t *testing.T) {
	doer := &fakeDoer{handler: func(req *client.Request) (*model.Response, error) {
		if strings.Contains(req.URL, "site-001") {
			return &model.Response{StatusCode: 404, Body: "not found"}, nil
		}
		return &model.Response{StatusCode: 200, Body: "profile"}, nil
	}}
	rules := []*model.SiteRule{siteRule(0), siteRule(1)}

	p := &recordingPresenter{}
	opts := testOptions()
	opts.UseCache = false
	interactive := NewOrchestrator(doer, WithPresenter(p)).Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, []string{"site-000"}, p.found)
	assert.Empty(t, p.missed)

	opts.Verbose = true
	p = &recordingPresenter{}
	NewOrchestrator(doer, WithPresenter(p)).Run(context.Background(), "alice", rules, opts)
	assert.Equal(t, []string{"site-001"}, p.missed)

	opts.JSON = true
	p = &recordingPresenter{}
	machine := NewOrchestrator(doer, WithPresenter(p)).Run(context.Background(), "alice", rules, opts)
	assert.Empty(t, p.found)
	assert.Empty(t, p.missed)
	assert.Equal(t, interactive, machine)
}

type fakeProfile struct{ calls atomic.Int32 }

func (f *fakeProfile) Supports(rule *model.SiteRule) bool { return rule.Name == "site-000" }
func (f *fakeProfile) Enrich(_ context.Context, identifier, session string) ([]model.Metadata, error) {
	f.calls.Add(1)
	return []model.Metadata{{Schema: "JSON", Type: model.FieldString, Name: "Followers", Path: "edge", Value: identifier + ":" + session}}, nil
}

func TestRunProfileEnricherRequiresSession(t *testing.T) {
	doer := &fakeDoer{}
	profile := &fakeProfile{}
	rules := []*model.SiteRule{siteRule(0), siteRule(1)}
	opts := testOptions()
	opts.UseCache = false

	out := NewOrchestrator(doer, WithProfileEnricher(profile)).Run(context.Background(), "alice", rules, opts)
	assert.Empty(t, out[0].Metadata)
	assert.Equal(t, int32(0), profile.calls.Load())

	opts.SessionToken = "sess"
	out = NewOrchestrator(doer, WithProfileEnricher(profile)).Run(context.Background(), "alice", rules, opts)
	require.Len(t, out[0].Metadata, 1)
	assert.Equal(t, "alice:sess", out[0].Metadata[0].Value)
	assert.Empty(t, out[1].Metadata)
	assert.Equal(t, int32(1), profile.calls.Load())
}

func TestRunBatchPause(t *testing.T) {
	rules := make([]*model.SiteRule, 5)
	for i := range rules {
		rules[i] = siteRule(i)
	}
	opts := testOptions()
	opts.BatchSize = 2
	opts.BatchPause = 30 * time.Millisecond

	// 规则数未超过阈值, 不暂停
	opts.BatchPauseThreshold = 10
	start := time.Now()
	NewOrchestrator(&fakeDoer{}).Run(context.Background(), "alice", rules, opts)
	assert.Less(t, time.Since(start), 60*time.Millisecond)

	// 超过阈值, 3 个批次之间暂停 2 次
	opts.BatchPauseThreshold = 4
	start = time.Now()
	out := NewOrchestrator(&fakeDoer{}).Run(context.Background(), "alice", rules, opts)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Len(t, out, 5)
}
