package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"neorecon/internal/core/model"
)

// CsvReporter 负责将命中结果导出为 CSV 文件
type CsvReporter struct {
	PathFor func(report *model.Report) string
}

func NewCsvReporter(pathFor func(report *model.Report) string) *CsvReporter {
	return &CsvReporter{PathFor: pathFor}
}

func (r *CsvReporter) Report(_ context.Context, report *model.Report) error {
	return SaveCsvResult(r.PathFor(report), report)
}

// SaveCsvResult 一次性将报告保存为 CSV
// 前两行为生成日期与目标, 之后是 Site,Text,Url
func SaveCsvResult(path string, report *model.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	// 写入 UTF-8 BOM，防止 Excel 打开乱码
	if _, err := f.WriteString("\xEF\xBB\xBF"); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}

	w := csv.NewWriter(f)
	rows := [][]string{
		{"Report generated on", report.Date.Format(DatePrettyLayout)},
		{"Target", report.Target},
		{"Site", "Text", "Url"},
	}
	for _, o := range report.FoundAccounts() {
		rows = append(rows, []string{o.Name, statusMark(o.Status), o.URL})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func statusMark(s model.Status) string {
	if s == model.StatusFound {
		return "✓"
	}
	return "✕"
}
