/**
 * 规则过滤表达式
 * @description: prop OP value [and|or prop OP value]* 形式的布尔表达式, 严格从左到右求值, 无优先级
 */

package filter

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Operator 比较运算符
type Operator string

const (
	OpEqual        Operator = "="
	OpContains     Operator = "~"
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpNotEqual     Operator = "!="
)

// Connective 条件连接词
type Connective string

const (
	And Connective = "and"
	Or  Connective = "or"
)

var conditionPattern = regexp2.MustCompile(`(\w+)([=~><!]+)([^ ]+)\s*(and|or)?\s*`, regexp2.None)

// Condition 单个比较条件
type Condition struct {
	Prop  string
	Op    Operator
	Value string
}

// Expression 解析后的过滤表达式
// len(Connectives) == len(Conditions)-1
type Expression struct {
	Source      string
	Conditions  []Condition
	Connectives []Connective
}

// Properties 可按属性名取值的对象
type Properties interface {
	Property(name string) (string, bool)
}

// Parse 解析过滤表达式
// 没有任何合法条件、运算符未知、连接词缺失或末尾多余时返回 *SyntaxError
func Parse(text string) (*Expression, error) {
	expr := &Expression{Source: text}

	var trailing Connective
	m, err := conditionPattern.FindStringMatch(text)
	for ; m != nil && err == nil; m, err = conditionPattern.FindNextMatch(m) {
		groups := m.Groups()
		op := Operator(groups[2].String())
		if !op.valid() {
			return nil, &SyntaxError{Expr: text, Reason: "unknown operator " + string(op)}
		}
		if len(expr.Conditions) > 0 {
			if trailing == "" {
				return nil, &SyntaxError{Expr: text, Reason: "missing and/or before " + groups[1].String()}
			}
			expr.Connectives = append(expr.Connectives, trailing)
		}
		expr.Conditions = append(expr.Conditions, Condition{
			Prop:  groups[1].String(),
			Op:    op,
			Value: groups[3].String(),
		})
		trailing = Connective(groups[4].String())
	}
	if err != nil {
		return nil, &SyntaxError{Expr: text, Reason: err.Error()}
	}
	if len(expr.Conditions) == 0 {
		return nil, &SyntaxError{Expr: text, Reason: "no condition found"}
	}
	if trailing != "" {
		return nil, &SyntaxError{Expr: text, Reason: "dangling " + string(trailing)}
	}
	return expr, nil
}

func (o Operator) valid() bool {
	switch o {
	case OpEqual, OpContains, OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpNotEqual:
		return true
	}
	return false
}

// Evaluate 对单个对象求值
// 所有条件都会被求值, 任一数值比较失败都返回 *EvalError
func (e *Expression) Evaluate(target Properties) (bool, error) {
	result, err := e.Conditions[0].Evaluate(target)
	if err != nil {
		return false, err
	}
	for i := 1; i < len(e.Conditions); i++ {
		next, err := e.Conditions[i].Evaluate(target)
		if err != nil {
			return false, err
		}
		switch e.Connectives[i-1] {
		case And:
			result = result && next
		case Or:
			result = result || next
		}
	}
	return result, nil
}

// Evaluate 求值单个条件
// 比较不区分大小写, 属性不存在时为 false
func (c Condition) Evaluate(target Properties) (bool, error) {
	raw, ok := target.Property(c.Prop)
	if !ok {
		return false, nil
	}
	actual := strings.ToLower(raw)
	expected := strings.ToLower(c.Value)

	switch c.Op {
	case OpEqual:
		return actual == expected, nil
	case OpNotEqual:
		return actual != expected, nil
	case OpContains:
		return strings.Contains(actual, expected), nil
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if err != nil {
		return false, &EvalError{Prop: c.Prop, Value: raw}
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return false, &EvalError{Prop: c.Prop, Value: c.Value}
	}
	switch c.Op {
	case OpGreater:
		return a > b, nil
	case OpLess:
		return a < b, nil
	case OpGreaterEqual:
		return a >= b, nil
	case OpLessEqual:
		return a <= b, nil
	}
	return false, nil
}

func (e *Expression) String() string {
	return e.Source
}
