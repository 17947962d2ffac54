package filter

import (
	"errors"
	"fmt"
)

// ErrNoRules 过滤后没有剩余规则
var ErrNoRules = errors.New("no sites left to search")

// SyntaxError 过滤表达式格式错误
type SyntaxError struct {
	Expr   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s (expected format: property=value [and|or property=value]...)", e.Expr, e.Reason)
}

// EvalError 数值比较时无法将一侧转换为数字
type EvalError struct {
	Prop  string
	Value string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("filter condition on %q: %q is not a number", e.Prop, e.Value)
}
