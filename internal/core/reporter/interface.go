/**
 * 结果输出接口定义
 * @author: Sun977
 * @date: 2026.01.21
 * @description: 定义结果输出的通用接口，解耦 Console/JSON/CSV/Excel 输出。
 */

package reporter

import (
	"context"
	"errors"

	"neorecon/internal/core/model"
)

// TabularData 是一个可以被渲染为表格的数据接口
type TabularData interface {
	Headers() []string
	Rows() [][]string
}

// Reporter 定义结果输出的行为
type Reporter interface {
	// Report 输出一次运行的报告
	Report(ctx context.Context, report *model.Report) error
}

// MultiReporter 支持同时向多个目标输出 (e.g., Console + CSV + Excel)
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{
		reporters: reporters,
	}
}

// Add 追加输出目标
func (m *MultiReporter) Add(r Reporter) {
	m.reporters = append(m.reporters, r)
}

func (m *MultiReporter) Report(ctx context.Context, report *model.Report) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// tableOf 汇总多个 TabularData 为表头与行
func tableOf[T TabularData](items []T) ([]string, [][]string) {
	var headers []string
	var rows [][]string
	for _, item := range items {
		if headers == nil {
			headers = item.Headers()
		}
		rows = append(rows, item.Rows()...)
	}
	return headers, rows
}
