// Package cache 进程内探测结果缓存
// 键为 (最终 URL, User-Agent, 代理), 无淘汰、无过期、不落盘
package cache

import (
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"neorecon/internal/core/model"
)

// Key 缓存键
// Body 为填充后的请求体, 共用同一 URL 的 POST 探测由它区分
type Key struct {
	URL       string
	Body      string
	UserAgent string
	Proxy     string
}

func (k Key) String() string {
	return strings.Join([]string{k.URL, k.Body, k.UserAgent, k.Proxy}, "\x00")
}

// Cache 探测结果缓存
type Cache interface {
	Get(key Key) (model.ProbeOutcome, bool)
	Set(key Key, outcome model.ProbeOutcome)
	// Do 命中时直接返回缓存结果; 未命中时执行 fn, 同一键的并发未命中只执行一次
	// hit 表示结果来自缓存或其他并发调用
	Do(key Key, fn func() model.ProbeOutcome) (outcome model.ProbeOutcome, hit bool)
	Len() int
}

// Memory 互斥锁保护的内存缓存
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]model.ProbeOutcome
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory 创建内存缓存
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]model.ProbeOutcome)}
}

// Get 读取缓存, 返回副本
func (m *Memory) Get(key Key) (model.ProbeOutcome, bool) {
	m.mu.RLock()
	o, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return model.ProbeOutcome{}, false
	}
	return o.Clone(), true
}

// Set 写入缓存, ERROR 结果不缓存
func (m *Memory) Set(key Key, outcome model.ProbeOutcome) {
	if outcome.Status == model.StatusError || outcome.Status == model.StatusNone {
		return
	}
	m.mu.Lock()
	m.entries[key] = outcome.Clone()
	m.mu.Unlock()
}

// Do 读取或计算
func (m *Memory) Do(key Key, fn func() model.ProbeOutcome) (model.ProbeOutcome, bool) {
	if o, ok := m.Get(key); ok {
		m.hits.Add(1)
		return o, true
	}

	executed := false
	v, _, _ := m.group.Do(key.String(), func() (interface{}, error) {
		// 等待期间可能已被其他调用写入
		if o, ok := m.Get(key); ok {
			return o, nil
		}
		executed = true
		m.misses.Add(1)
		o := fn()
		m.Set(key, o)
		return o, nil
	})
	if !executed {
		m.hits.Add(1)
	}
	return v.(model.ProbeOutcome).Clone(), !executed
}

// Len 条目数
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats 命中/未命中计数
func (m *Memory) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

// Noop 关闭缓存时使用, 总是执行 fn
type Noop struct{}

func (Noop) Get(Key) (model.ProbeOutcome, bool) { return model.ProbeOutcome{}, false }
func (Noop) Set(Key, model.ProbeOutcome)        {}
func (Noop) Len() int                           { return 0 }
func (Noop) Do(_ Key, fn func() model.ProbeOutcome) (model.ProbeOutcome, bool) {
	return fn(), false
}
