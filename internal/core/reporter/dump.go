package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"neorecon/internal/core/model"
)

// FileDumper 将命中站点的响应体保存到 dump 目录
type FileDumper struct {
	Dir string
}

// NewFileDumper 创建转储器, 目录不存在时在首次写入前创建
func NewFileDumper(dir string) *FileDumper {
	return &FileDumper{Dir: dir}
}

// Dump 写入 <dir>/<site>.<ext>
func (d *FileDumper) Dump(site string, resp *model.Response) error {
	if resp == nil {
		return nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	name := strings.ReplaceAll(site, " ", "_") + "." + dumpExtension(resp.Headers.Get("Content-Type"))
	path := filepath.Join(d.Dir, safeName(name))
	if err := os.WriteFile(path, []byte(resp.Body), 0o644); err != nil {
		return fmt.Errorf("dump %s: %w", site, err)
	}
	return nil
}

func dumpExtension(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/json"):
		return "json"
	case strings.Contains(ct, "text/html"):
		return "html"
	default:
		return "txt"
	}
}
