package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"neorecon/internal/core/model"
)

// JSONReport JSON 报告结构
type JSONReport struct {
	Date       string        `json:"date"`
	Target     string        `json:"target"`
	TotalFound int           `json:"total_found"`
	Accounts   []JSONAccount `json:"accounts"`
}

// JSONAccount 单个命中账号
type JSONAccount struct {
	Name     string                 `json:"name"`
	URL      string                 `json:"url"`
	Category string                 `json:"category"`
	Status   model.Status           `json:"status"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BuildJSONReport 仅包含命中的账号
func BuildJSONReport(report *model.Report) JSONReport {
	found := report.FoundAccounts()
	out := JSONReport{
		Date:       report.Date.Format(DatePrettyLayout),
		Target:     report.Target,
		TotalFound: len(found),
		Accounts:   make([]JSONAccount, 0, len(found)),
	}
	for _, o := range found {
		acc := JSONAccount{Name: o.Name, URL: o.URL, Category: o.Category, Status: o.Status}
		if len(o.Metadata) > 0 {
			acc.Metadata = make(map[string]interface{}, len(o.Metadata))
			for _, m := range o.Metadata {
				acc.Metadata[m.Name] = m.Export()
			}
		}
		out.Accounts = append(out.Accounts, acc)
	}
	return out
}

// WriteJSON 以单行 JSON 写出报告
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(BuildJSONReport(report))
}

// JSONReporter JSON 输出: Path 为空时写入 Writer (stdout)
type JSONReporter struct {
	Writer io.Writer
	Path   string
}

// NewJSONReporter 创建 JSON 输出
func NewJSONReporter(w io.Writer, path string) *JSONReporter {
	return &JSONReporter{Writer: w, Path: path}
}

func (r *JSONReporter) Report(_ context.Context, report *model.Report) error {
	if r.Path == "" {
		return WriteJSON(r.Writer, report)
	}
	return SaveJsonResult(r.Path, report)
}

// SaveJsonResult 将报告保存为带缩进的 JSON 文件
func SaveJsonResult(path string, report *model.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(BuildJSONReport(report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write json report: %w", err)
	}
	return nil
}
