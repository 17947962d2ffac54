// Package classifier 响应判定: (规则, 响应) -> 探测状态
package classifier

import (
	"strings"

	"neorecon/internal/core/model"
)

// Signals 判定过程中的中间信号, 便于调试日志与测试
type Signals struct {
	Existence       bool
	Ambiguous       bool
	MissingByString bool
	MissingByCode   bool
}

// Classify 判定单个响应
// 传输失败不会进入该函数, 由调用方直接记为 ERROR
func Classify(rule *model.SiteRule, resp *model.Response) model.Status {
	status, _ := Explain(rule, resp)
	return status
}

// Explain 判定并返回中间信号
//
// 存在信号: e_string 出现在响应体中且状态码等于 e_code
// 缺失信号: m_string 出现在响应体中, 或状态码等于 m_code
// m_code 与 e_code 相同时状态码无法区分缺失, 只有 m_string 可以排除命中
// 子串判定按字面执行: 空 m_string 总是包含在响应体中, 此类规则永远不会判定为命中
func Explain(rule *model.SiteRule, resp *model.Response) (model.Status, Signals) {
	var s Signals
	s.Existence = strings.Contains(resp.Body, rule.EString) && resp.StatusCode == rule.ECode
	if !s.Existence {
		return model.StatusNotFound, s
	}

	s.Ambiguous = rule.MCode == rule.ECode
	s.MissingByString = strings.Contains(resp.Body, rule.MString)
	s.MissingByCode = !s.Ambiguous && resp.StatusCode == rule.MCode
	if s.MissingByString || s.MissingByCode {
		return model.StatusNotFound, s
	}
	return model.StatusFound, s
}
