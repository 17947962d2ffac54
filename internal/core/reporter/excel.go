package reporter

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"neorecon/internal/core/model"
)

const (
	accountsSheet = "Accounts"
	metadataSheet = "Metadata"
)

// ExcelReporter 将报告导出为 XLSX
type ExcelReporter struct {
	PathFor func(report *model.Report) string
}

func NewExcelReporter(pathFor func(report *model.Report) string) *ExcelReporter {
	return &ExcelReporter{PathFor: pathFor}
}

func (r *ExcelReporter) Report(_ context.Context, report *model.Report) error {
	return SaveExcelReport(r.PathFor(report), report)
}

// SaveExcelReport 两个工作表: 命中账号与元数据
func SaveExcelReport(path string, report *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", accountsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(metadataSheet); err != nil {
		return err
	}

	found := report.FoundAccounts()
	headers, rows := tableOf(found)
	if headers == nil {
		headers = model.ProbeOutcome{}.Headers()
	}

	set := func(sheet string, row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(values))
		for i, v := range values {
			vals[i] = v
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}

	if err := set(accountsSheet, 1, []string{"Target", report.Target, "Date", report.Date.Format(DatePrettyLayout)}); err != nil {
		return err
	}
	if err := set(accountsSheet, 3, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := set(accountsSheet, 4+i, row); err != nil {
			return err
		}
	}

	if err := set(metadataSheet, 1, []string{"Site", "Field", "Value"}); err != nil {
		return err
	}
	next := 2
	for _, o := range found {
		for _, m := range o.Metadata {
			if err := set(metadataSheet, next, []string{o.Name, m.Name, m.Display()}); err != nil {
				return err
			}
			next++
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetRowStyle(accountsSheet, 3, 3, style)
		f.SetRowStyle(metadataSheet, 1, 1, style)
	}
	f.SetColWidth(accountsSheet, "A", "A", 24)
	f.SetColWidth(accountsSheet, "D", "D", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx report: %w", err)
	}
	return nil
}
