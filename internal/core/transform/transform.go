// Package transform 标识符输入变换 (规则的 input_operation)
package transform

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Func 变换函数
type Func func(identifier string) string

var registry = map[string]Func{
	"lowercase": strings.ToLower,
	"strip-domain": func(s string) string {
		if i := strings.LastIndex(s, "@"); i >= 0 {
			return s[:i]
		}
		return s
	},
	"email-domain": func(s string) string {
		if i := strings.LastIndex(s, "@"); i >= 0 {
			return s[i+1:]
		}
		return s
	},
	"url-encode": url.QueryEscape,
	"md5": func(s string) string {
		sum := md5.Sum([]byte(s))
		return hex.EncodeToString(sum[:])
	},
	"sha256": func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	},
}

// Supported 是否支持该变换 (空标签视为无变换)
func Supported(op string) bool {
	if op == "" {
		return true
	}
	_, ok := registry[normalize(op)]
	return ok
}

// Apply 对原始标识符执行变换
// 调用方必须总是传入原始标识符, 不可串联上一次变换的结果
func Apply(op, identifier string) (string, error) {
	if op == "" {
		return identifier, nil
	}
	fn, ok := registry[normalize(op)]
	if !ok {
		return "", fmt.Errorf("unknown input transform %q", op)
	}
	return fn(identifier), nil
}

// Names 已注册的变换名
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	return names
}

func normalize(op string) string {
	return strings.ToLower(strings.TrimSpace(op))
}
