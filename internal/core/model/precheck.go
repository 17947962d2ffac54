package model

import (
	"bytes"
	"encoding/json"
)

// 预检提取来源
const (
	ExtractFromCookie = "cookie"
	ExtractFromHeader = "header"
	ExtractFromBody   = "body"
	ExtractFromJSON   = "json"
)

// PreCheck 预检步骤序列
type PreCheck []PreCheckStep

// UnmarshalJSON 同时接受单个步骤对象与步骤数组
func (p *PreCheck) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		*p = nil
		return nil
	}
	if trimmed[0] == '{' {
		var step PreCheckStep
		if err := json.Unmarshal(trimmed, &step); err != nil {
			return err
		}
		*p = PreCheck{step}
		return nil
	}
	var steps []PreCheckStep
	if err := json.Unmarshal(trimmed, &steps); err != nil {
		return err
	}
	*p = steps
	return nil
}

// PreCheckStep 单个预检请求
type PreCheckStep struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Data    string            `json:"data,omitempty"`
	ECode   int               `json:"e_code,omitempty"` // 期望状态码, 0 表示不校验
	Extract []Extraction      `json:"extract,omitempty"`
}

// Extraction 从预检响应中提取一个值并写入请求头
type Extraction struct {
	From    string    `json:"from"`              // cookie/header/body/json
	Key     string    `json:"key,omitempty"`     // cookie 名或响应头名
	Pattern string    `json:"pattern,omitempty"` // body 正则 (取第一个捕获组)
	Path    FieldPath `json:"path,omitempty"`    // json 路径
	Header  string    `json:"header"`            // 目标请求头
	Prefix  string    `json:"prefix,omitempty"`  // 值前缀
}
