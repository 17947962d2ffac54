package runner

import (
	"context"
	"fmt"
	"sync"

	"neorecon/internal/core/model"
)

// RunnerManager 管理所有的 Runner
type RunnerManager struct {
	runners map[model.RuleKind]Runner
	mu      sync.RWMutex
}

// NewRunnerManager 注册用户名与邮箱执行器
func NewRunnerManager(source RuleSource, newDoer DoerFactory) *RunnerManager {
	m := &RunnerManager{
		runners: make(map[model.RuleKind]Runner),
	}
	m.Register(NewIdentifierRunner(model.RuleKindUsername, source, newDoer))
	m.Register(NewIdentifierRunner(model.RuleKindEmail, source, newDoer))
	return m
}

// Register 注册一个 Runner
func (m *RunnerManager) Register(runner Runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners[runner.Kind()] = runner
}

// Get 获取指定类型的 Runner
func (m *RunnerManager) Get(kind model.RuleKind) (Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if runner, ok := m.runners[kind]; ok {
		return runner, nil
	}
	return nil, fmt.Errorf("no runner found for identifier kind: %s", kind)
}

// Execute 执行任务
func (m *RunnerManager) Execute(ctx context.Context, job *Job) (*model.Report, error) {
	if job == nil || job.Task == nil {
		return nil, fmt.Errorf("job task is required")
	}
	runner, err := m.Get(job.Task.Kind)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, job)
}
