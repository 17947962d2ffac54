package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm" // 引入 pterm 库用于控制台输出

	"neorecon/internal/core/model"
)

// ConsolePresenter 探测过程中逐条输出命中/未命中
// 多个探测 goroutine 并发调用, 每条结果在锁内整体输出, 不会交错
type ConsolePresenter struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsolePresenter 创建控制台输出; out 为空时写入 stdout
func NewConsolePresenter(out io.Writer, verbose bool) *ConsolePresenter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsolePresenter{out: out, verbose: verbose}
}

// Found 输出命中账号及其元数据
func (p *ConsolePresenter) Found(_ string, outcome model.ProbeOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s %s\n", pterm.Green("✔️ ["+outcome.Name+"]"), outcome.URL)
	for _, m := range outcome.Metadata {
		fmt.Fprintf(p.out, "  %s %s: %s\n", pterm.Cyan("➡"), m.Name, m.Display())
	}
}

// Missed 仅在 verbose 模式下输出
func (p *ConsolePresenter) Missed(_ string, outcome model.ProbeOutcome) {
	if !p.verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("❌ [%s] %s", outcome.Name, outcome.URL)
	if outcome.Status == model.StatusError && outcome.Error != "" {
		line += " (" + outcome.Error + ")"
	}
	fmt.Fprintln(p.out, pterm.Gray(line))
}

// ConsoleReporter 运行结束后的汇总输出
type ConsoleReporter struct {
	out   io.Writer
	table bool
}

func NewConsoleReporter(out io.Writer, table bool) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, table: table}
}

func (r *ConsoleReporter) Report(_ context.Context, report *model.Report) error {
	if report == nil {
		return nil
	}
	found := report.FoundAccounts()
	if len(found) == 0 {
		fmt.Fprintln(r.out, pterm.Yellow("No accounts were found for the given username"))
	} else if r.table {
		if err := r.printTableFromData(tableOf(found)); err != nil {
			return err
		}
	}
	fmt.Fprintf(r.out, "\nCheck completed in %.2f seconds (%d sites)\n", report.Elapsed.Seconds(), report.TotalRules)
	if report.SaveDir != "" {
		fmt.Fprintf(r.out, "Results saved to %s\n", report.SaveDir)
	}
	return nil
}

func (r *ConsoleReporter) printTableFromData(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)

	rendered, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false). // 简洁风格
		WithData(tableData).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(r.out, rendered)
	return nil
}
