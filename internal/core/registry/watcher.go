package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"neorecon/internal/core/model"
	"neorecon/internal/pkg/logger"
)

// Watcher 规则文件监听器
// 监听规则文件所在目录 (编辑器常以重命名方式替换文件), 变更后防抖并重新加载对应规则
type Watcher struct {
	registry    *Registry
	watcher     *fsnotify.Watcher
	targets     map[string]model.RuleKind // 绝对路径 -> 规则类型
	reloadDelay time.Duration

	mu      sync.Mutex
	pending map[model.RuleKind]*time.Timer
	onLoad  func(kind model.RuleKind, err error)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher 创建规则文件监听器
func NewWatcher(reg *Registry, reloadDelay time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if reloadDelay <= 0 {
		reloadDelay = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		registry:    reg,
		watcher:     fw,
		targets:     make(map[string]model.RuleKind),
		reloadDelay: reloadDelay,
		pending:     make(map[model.RuleKind]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	paths := reg.Paths()
	w.track(paths.Username, model.RuleKindUsername)
	w.track(paths.Metadata, model.RuleKindUsername)
	w.track(paths.Email, model.RuleKindEmail)
	return w, nil
}

// OnReload 设置重新加载回调 (测试与日志使用)
func (w *Watcher) OnReload(fn func(kind model.RuleKind, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLoad = fn
}

func (w *Watcher) track(path string, kind model.RuleKind) {
	if path == "" {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.targets[abs] = kind
}

// Start 启动监听
func (w *Watcher) Start() error {
	dirs := make(map[string]struct{})
	for path := range w.targets {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	go w.watchLoop()
	return nil
}

// Stop 停止监听
func (w *Watcher) Stop() error {
	w.cancel()
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("rule watcher error: %v", err)
		}
	}
}

// handleFileEvent 写入/创建/重命名事件触发防抖重载
func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	kind, ok := w.targets[abs]
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[kind]; ok {
		t.Reset(w.reloadDelay)
		return
	}
	w.pending[kind] = time.AfterFunc(w.reloadDelay, func() {
		w.reload(kind)
	})
}

func (w *Watcher) reload(kind model.RuleKind) {
	w.mu.Lock()
	delete(w.pending, kind)
	cb := w.onLoad
	w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	err := w.registry.Reload(kind)
	if err != nil {
		logger.LogSystemEvent("registry", "reload_failed", err.Error(), logger.ErrorLevel, map[string]interface{}{"kind": kind})
	} else {
		logger.LogSystemEvent("registry", "reloaded", "rule file changed", logger.InfoLevel, map[string]interface{}{
			"kind":  kind,
			"count": w.registry.Count(kind),
		})
	}
	if cb != nil {
		cb(kind, err)
	}
}
