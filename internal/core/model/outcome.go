/**
 * 探测结果模型
 * @description: 单站点探测结果与一次运行的汇总报告, 供控制台/文件导出共用
 */

package model

import (
	"net/http"
	"time"
)

// Status 探测状态
type Status string

const (
	StatusNone     Status = "NONE" // 评估前的默认值, 完成的探测不会保留该状态
	StatusFound    Status = "FOUND"
	StatusNotFound Status = "NOT-FOUND"
	StatusError    Status = "ERROR"
)

// ProbeOutcome 单个站点的探测结果
type ProbeOutcome struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Category   string     `json:"category"`
	Status     Status     `json:"status"`
	StatusCode int        `json:"status_code,omitempty"`
	Metadata   []Metadata `json:"metadata,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewOutcome 根据规则创建初始结果
func NewOutcome(rule *SiteRule, url string) ProbeOutcome {
	return ProbeOutcome{
		Name:     rule.Name,
		URL:      url,
		Category: rule.Category,
		Status:   StatusNone,
	}
}

// Clone 深拷贝, 缓存命中时返回副本
func (o ProbeOutcome) Clone() ProbeOutcome {
	c := o
	if o.Metadata != nil {
		c.Metadata = make([]Metadata, len(o.Metadata))
		for i, m := range o.Metadata {
			c.Metadata[i] = m
			if m.Items != nil {
				c.Metadata[i].Items = append([]string(nil), m.Items...)
			}
		}
	}
	return c
}

// Found 是否命中
func (o ProbeOutcome) Found() bool {
	return o.Status == StatusFound
}

// Headers 实现 TabularData 接口
func (o ProbeOutcome) Headers() []string {
	return []string{"Site", "Category", "Status", "URL"}
}

// Rows 实现 TabularData 接口
func (o ProbeOutcome) Rows() [][]string {
	return [][]string{{o.Name, o.Category, string(o.Status), o.URL}}
}

// Response 探测响应
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       string
	JSON       interface{} // 可解析为 JSON 时的结构化响应体
	URL        string      // 跟随重定向后的最终地址
}

// Report 一次运行 (单个标识符) 的汇总
type Report struct {
	Kind       RuleKind       `json:"kind"`
	Target     string         `json:"target"`
	Date       time.Time      `json:"date"`
	Elapsed    time.Duration  `json:"elapsed"`
	Outcomes   []ProbeOutcome `json:"outcomes"`
	SaveDir    string         `json:"-"`
	TotalRules int            `json:"total_rules"`
}

// FoundAccounts 过滤出命中的结果, 保持原有顺序
func (r *Report) FoundAccounts() []ProbeOutcome {
	found := make([]ProbeOutcome, 0)
	for _, o := range r.Outcomes {
		if o.Found() {
			found = append(found, o)
		}
	}
	return found
}

// Task 一次探测任务 (标识符 + 类型)
type Task struct {
	Kind       RuleKind
	Identifier string
	CreatedAt  time.Time
}

// NewTask 创建一个新任务
func NewTask(kind RuleKind, identifier string) *Task {
	return &Task{
		Kind:       kind,
		Identifier: identifier,
		CreatedAt:  time.Now(),
	}
}
