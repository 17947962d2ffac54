// Package gate 探测并发准入控制
package gate

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate 计数准入门
// 每次成功的 Acquire 都必须对应一次 Release
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

// Feedback 可根据探测结果调整并发上限的准入门
type Feedback interface {
	OnSuccess()
	OnFailure()
}

// Limiter 基于令牌通道的准入门
// 固定模式下 initial == min == max, 上限不变;
// 自适应模式按 AIMD 调整: 连续成功 limit 次后 +1, 失败时乘以 0.7
type Limiter struct {
	tokens chan struct{}
	debt   int32 // 缩容时借出未还的令牌数, Release 时销毁

	mu           sync.Mutex
	limit        int
	minLimit     int
	maxLimit     int
	successCount int

	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewFixed 固定上限的准入门
func NewFixed(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return NewAdaptive(n, n, n)
}

// NewAdaptive 自适应准入门
func NewAdaptive(initial, min, max int) *Limiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}

	l := &Limiter{
		tokens:   make(chan struct{}, max),
		limit:    initial,
		minLimit: min,
		maxLimit: max,
	}
	for i := 0; i < initial; i++ {
		l.tokens <- struct{}{}
	}
	return l
}

// Acquire 获取令牌, 阻塞直到有令牌或 ctx 取消
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case <-l.tokens:
	case <-ctx.Done():
		return ctx.Err()
	}

	n := l.inFlight.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

// Release 归还令牌; 存在缩容债务时销毁令牌
func (l *Limiter) Release() {
	l.inFlight.Add(-1)

	for {
		d := atomic.LoadInt32(&l.debt)
		if d <= 0 {
			break
		}
		if atomic.CompareAndSwapInt32(&l.debt, d, d-1) {
			return
		}
	}

	select {
	case l.tokens <- struct{}{}:
	default:
	}
}

// OnSuccess 一次成功的探测
func (l *Limiter) OnSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.successCount++
	if l.successCount >= l.limit {
		l.successCount = 0
		l.grow(1)
	}
}

// OnFailure 一次失败的探测 (通常是超时)
func (l *Limiter) OnFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()

	decrease := l.limit - int(float64(l.limit)*0.7)
	if decrease < 1 {
		decrease = 1
	}
	l.shrink(decrease)
	l.successCount = 0
}

func (l *Limiter) grow(n int) {
	target := l.limit + n
	if target > l.maxLimit {
		target = l.maxLimit
	}
	for ; l.limit < target; l.limit++ {
		select {
		case l.tokens <- struct{}{}:
		default:
		}
	}
}

func (l *Limiter) shrink(n int) {
	target := l.limit - n
	if target < l.minLimit {
		target = l.minLimit
	}
	diff := l.limit - target
	if diff <= 0 {
		return
	}
	l.limit = target

	// 先取走空闲令牌, 取不到的记为债务
	removed := 0
	for i := 0; i < diff; i++ {
		select {
		case <-l.tokens:
			removed++
		default:
		}
	}
	if remaining := diff - removed; remaining > 0 {
		atomic.AddInt32(&l.debt, int32(remaining))
	}
}

// Limit 当前并发上限
func (l *Limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// InFlight 当前占用的令牌数
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Peak 运行以来的最大同时占用数
func (l *Limiter) Peak() int {
	return int(l.peak.Load())
}
