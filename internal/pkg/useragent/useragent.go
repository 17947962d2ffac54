// Package useragent 随机浏览器 User-Agent
package useragent

import (
	"bufio"
	"math/rand"
	"os"
	"strings"

	"neorecon/internal/pkg/version"
)

var fallback = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Load 读取 UA 列表文件, 每行一个, 忽略空行与 # 注释
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var agents []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		agents = append(agents, line)
	}
	return agents, scanner.Err()
}

// Pick 从文件中随机选择一个 UA, 文件不可用或为空时使用内置列表
func Pick(path string) string {
	agents, err := Load(path)
	if err != nil || len(agents) == 0 {
		agents = fallback
	}
	if len(agents) == 0 {
		return version.GetUserAgent()
	}
	return agents[rand.Intn(len(agents))]
}
