/**
 * 站点规则模型
 * @description: 声明式站点规则、元数据字段与预检步骤定义, 与 WhatsMyName 列表格式兼容
 */

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RuleKind 规则集合类型 (按标识符类型区分)
type RuleKind string

const (
	RuleKindUsername RuleKind = "username"
	RuleKindEmail    RuleKind = "email"
)

// AccountPlaceholder URL/请求体模板中的标识符占位符
const AccountPlaceholder = "{account}"

// NSFWCategory 成人内容站点分类
const NSFWCategory = "xx NSFW xx"

// SiteRule 单个站点的存在性检测规则
type SiteRule struct {
	Name           string              `json:"name"`
	Category       string              `json:"cat"`
	URICheck       string              `json:"uri_check"`
	Method         string              `json:"method,omitempty"`
	Data           string              `json:"data,omitempty"`
	Headers        map[string]string   `json:"headers,omitempty"`
	EString        string              `json:"e_string"`
	ECode          int                 `json:"e_code"`
	MString        string              `json:"m_string"`
	MCode          int                 `json:"m_code"`
	PreCheck       PreCheck            `json:"pre_check,omitempty"`
	Metadata       []MetadataFieldSpec `json:"metadata,omitempty"`
	InputOperation string              `json:"input_operation,omitempty"`

	// props 原始属性 (键已小写), 供过滤表达式按任意属性取值
	props map[string]interface{}
}

// siteRuleJSON 解码中间结构, e_code 使用指针以区分缺失与 0
type siteRuleJSON struct {
	Name           string              `json:"name"`
	Category       string              `json:"cat"`
	URICheck       string              `json:"uri_check"`
	Method         string              `json:"method"`
	Data           *string             `json:"data"`
	PostBody       *string             `json:"post_body"`
	Headers        map[string]string   `json:"headers"`
	EString        string              `json:"e_string"`
	ECode          *int                `json:"e_code"`
	MString        string              `json:"m_string"`
	MCode          *int                `json:"m_code"`
	PreCheck       PreCheck            `json:"pre_check"`
	Metadata       []MetadataFieldSpec `json:"metadata"`
	InputOperation *string             `json:"input_operation"`
}

// UnmarshalJSON 解码规则并保留原始属性
func (r *SiteRule) UnmarshalJSON(data []byte) error {
	var raw siteRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var props map[string]interface{}
	if err := dec.Decode(&props); err != nil {
		return err
	}

	if raw.ECode == nil {
		return fmt.Errorf("rule %q: e_code is required", raw.Name)
	}

	*r = SiteRule{
		Name:     raw.Name,
		Category: raw.Category,
		URICheck: raw.URICheck,
		Method:   strings.ToUpper(strings.TrimSpace(raw.Method)),
		Headers:  raw.Headers,
		EString:  raw.EString,
		ECode:    *raw.ECode,
		MString:  raw.MString,
		PreCheck: raw.PreCheck,
		Metadata: raw.Metadata,
		props:    make(map[string]interface{}, len(props)),
	}
	if r.Method == "" {
		r.Method = "GET"
	}
	if raw.MCode != nil {
		r.MCode = *raw.MCode
	}
	switch {
	case raw.Data != nil:
		r.Data = *raw.Data
	case raw.PostBody != nil:
		r.Data = *raw.PostBody
	}
	if raw.InputOperation != nil {
		r.InputOperation = *raw.InputOperation
	}
	for k, v := range props {
		r.props[strings.ToLower(k)] = v
	}
	return nil
}

// Property 按属性名取值 (大小写不敏感)
// 已建模字段优先, 其余回落到原始属性
func (r *SiteRule) Property(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "name":
		return r.Name, true
	case "cat", "category":
		return r.Category, true
	case "uri_check":
		return r.URICheck, true
	case "method":
		return r.Method, true
	case "e_code":
		return fmt.Sprintf("%d", r.ECode), true
	case "m_code":
		return fmt.Sprintf("%d", r.MCode), true
	case "e_string":
		return r.EString, true
	case "m_string":
		return r.MString, true
	}
	v, ok := r.props[strings.ToLower(name)]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// SetProperty 设置原始属性 (主要用于测试与外部构造的规则)
func (r *SiteRule) SetProperty(name string, value interface{}) {
	if r.props == nil {
		r.props = make(map[string]interface{})
	}
	r.props[strings.ToLower(name)] = value
}

// Validate 加载时一次性校验规则
func (r *SiteRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.URICheck == "" {
		return fmt.Errorf("rule %q: uri_check is required", r.Name)
	}
	for i, step := range r.PreCheck {
		if step.URL == "" {
			return fmt.Errorf("rule %q: pre_check step %d has no url", r.Name, i)
		}
	}
	for _, field := range r.Metadata {
		if err := field.Validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// BuildURL 用标识符填充 URL 模板
func (r *SiteRule) BuildURL(account string) string {
	return strings.ReplaceAll(r.URICheck, AccountPlaceholder, account)
}

// BuildBody 用标识符填充请求体模板, 无请求体时返回空字符串
func (r *SiteRule) BuildBody(account string) string {
	if r.Data == "" {
		return ""
	}
	return strings.ReplaceAll(r.Data, AccountPlaceholder, account)
}

// IsNSFW 是否为成人内容站点
func (r *SiteRule) IsNSFW() bool {
	return r.Category == NSFWCategory
}

// RuleFile 规则文件结构 {"sites": [...]}
type RuleFile struct {
	Sites []json.RawMessage `json:"sites"`
}

// MetadataFile 元数据侧表结构 {"sites": {"<site>": [...]}}
type MetadataFile struct {
	Sites map[string][]MetadataFieldSpec `json:"sites"`
}
