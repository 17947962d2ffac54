package options

import (
	"neorecon/internal/core/model"
)

// TaskOption 定义所有指令参数结构体必须实现的接口
type TaskOption interface {
	// Validate 验证参数合法性
	Validate() error

	// ToTasks 将参数转换为核心任务模型 (每个标识符一个任务)
	ToTasks() ([]*model.Task, error)
}
