package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 元数据字段 schema
const (
	SchemaJSON = "JSON"
	SchemaHTML = "HTML"
)

// 元数据字段类型
const (
	FieldString = "String"
	FieldArray  = "Array"
	FieldImage  = "Image"
)

// FieldPath 字段路径
// HTML schema 使用正则字符串, JSON schema 使用键/下标序列
type FieldPath struct {
	Pattern string
	Keys    []interface{}
}

// UnmarshalJSON 同时接受字符串与数组
func (p *FieldPath) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = FieldPath{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = FieldPath{Pattern: s}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var keys []interface{}
	if err := dec.Decode(&keys); err != nil {
		return fmt.Errorf("path must be a string or an array: %w", err)
	}
	*p = FieldPath{Keys: keys}
	return nil
}

// MarshalJSON 还原为原始形态
func (p FieldPath) MarshalJSON() ([]byte, error) {
	if p.Keys != nil {
		return json.Marshal(p.Keys)
	}
	if p.Pattern == "" {
		return []byte("null"), nil
	}
	return json.Marshal(p.Pattern)
}

// IsZero 路径是否为空
func (p FieldPath) IsZero() bool {
	return p.Pattern == "" && len(p.Keys) == 0
}

// Segments 以键序列形式返回路径, 字符串路径视为单个键
func (p FieldPath) Segments() []interface{} {
	if p.Keys != nil {
		return p.Keys
	}
	if p.Pattern == "" {
		return nil
	}
	return []interface{}{p.Pattern}
}

// String 稳定的字符串表示, 用作去重键
func (p FieldPath) String() string {
	if p.Keys == nil {
		return p.Pattern
	}
	parts := make([]string, len(p.Keys))
	for i, k := range p.Keys {
		parts[i] = fmt.Sprintf("%v", k)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// MetadataFieldSpec 元数据提取字段定义
type MetadataFieldSpec struct {
	Schema   string    `json:"schema"`
	Type     string    `json:"type"`
	Path     FieldPath `json:"path"`
	Name     string    `json:"name"`
	Prefix   string    `json:"prefix,omitempty"`
	ItemPath FieldPath `json:"item-path,omitempty"`
}

// Validate 校验字段定义
func (f *MetadataFieldSpec) Validate() error {
	switch f.Schema {
	case SchemaJSON, SchemaHTML:
	default:
		return fmt.Errorf("metadata %q: unsupported schema %q", f.Name, f.Schema)
	}
	switch f.Type {
	case FieldString, FieldImage:
	case FieldArray:
		if f.Schema != SchemaJSON {
			return fmt.Errorf("metadata %q: Array type requires JSON schema", f.Name)
		}
	default:
		return fmt.Errorf("metadata %q: unsupported type %q", f.Name, f.Type)
	}
	if f.Name == "" || f.Path.IsZero() {
		return fmt.Errorf("metadata field requires name and path")
	}
	return nil
}

// Metadata 提取出的元数据
type Metadata struct {
	Schema     string   `json:"schema"`
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Value      string   `json:"value,omitempty"`
	Items      []string `json:"items,omitempty"`
	Downloaded bool     `json:"downloaded,omitempty"`
}

// DedupKey 去重键 (schema, type, name, path)
func (m Metadata) DedupKey() string {
	return strings.Join([]string{m.Schema, m.Type, m.Name, m.Path}, "\x00")
}

// Display 展示用的值
func (m Metadata) Display() string {
	if m.Type == FieldArray {
		return strings.Join(m.Items, ", ")
	}
	return m.Value
}

// Export 导出用的值: 数组类型返回切片, 其余返回字符串
func (m Metadata) Export() interface{} {
	if m.Type == FieldArray {
		return m.Items
	}
	return m.Value
}
