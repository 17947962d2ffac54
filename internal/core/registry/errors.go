package registry

import (
	"fmt"

	"neorecon/internal/core/model"
)

// LoadError 规则文件缺失或损坏
type LoadError struct {
	Kind model.RuleKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s rules from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
