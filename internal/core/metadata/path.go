package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Lookup 沿键路径遍历解析后的 JSON
// 字符串段索引对象, 数字段索引数组; 任一段缺失返回 false
func Lookup(data interface{}, path []interface{}) (interface{}, bool) {
	if data == nil || len(path) == 0 {
		return nil, false
	}
	current := data
	for _, seg := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[segmentKey(seg)]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, ok := segmentIndex(seg)
			if !ok {
				return nil, false
			}
			if idx < 0 {
				idx += len(node)
			}
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func segmentKey(seg interface{}) string {
	switch s := seg.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}

func segmentIndex(seg interface{}) (int, bool) {
	switch s := seg.(type) {
	case json.Number:
		i, err := s.Int64()
		return int(i), err == nil
	case float64:
		return int(s), s == float64(int(s))
	case int:
		return s, true
	}
	return 0, false
}

// Stringify 将 JSON 标量转换为字符串
func Stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprintf("%v", s)
		}
		return string(b)
	}
}

// truthy 空值、false、0、空集合视为无值
func truthy(v interface{}) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return s != ""
	case bool:
		return s
	case json.Number:
		f, err := s.Float64()
		return err != nil || f != 0
	case float64:
		return s != 0
	case []interface{}:
		return len(s) > 0
	case map[string]interface{}:
		return len(s) > 0
	}
	return true
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "").Replace(s)
}
