// Package permute 用户名排列组合
package permute

import (
	"strings"
)

// Separators 组合元素时使用的分隔符
var Separators = []string{"", "_", "-", "."}

// Generate 生成用户名的排列组合
// 对元素的每个非空子集的每种排列, 用每个分隔符连接; includeSingles 为 false 时跳过单元素结果
// 结果按生成顺序去重
func Generate(elements []string, includeSingles bool) []string {
	clean := make([]string, 0, len(elements))
	for _, e := range elements {
		if e = strings.TrimSpace(e); e != "" {
			clean = append(clean, e)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	minSize := 2
	if includeSingles {
		minSize = 1
	}
	for size := minSize; size <= len(clean); size++ {
		for _, perm := range permutations(clean, size) {
			if size == 1 {
				add(perm[0])
				continue
			}
			for _, sep := range Separators {
				add(strings.Join(perm, sep))
			}
		}
	}
	return out
}

// permutations 长度为 k 的有序排列 (按下标字典序)
func permutations(items []string, k int) [][]string {
	var out [][]string
	used := make([]bool, len(items))
	current := make([]string, 0, k)

	var walk func()
	walk = func() {
		if len(current) == k {
			out = append(out, append([]string(nil), current...))
			return
		}
		for i, item := range items {
			if used[i] {
				continue
			}
			used[i] = true
			current = append(current, item)
			walk()
			current = current[:len(current)-1]
			used[i] = false
		}
	}
	walk()
	return out
}
