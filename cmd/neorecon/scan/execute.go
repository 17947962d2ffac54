package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"

	"neorecon/internal/config"
	"neorecon/internal/core/cache"
	"neorecon/internal/core/listsync"
	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
	"neorecon/internal/core/registry"
	"neorecon/internal/core/reporter"
	"neorecon/internal/core/runner"
	"neorecon/internal/pkg/client"
	"neorecon/internal/pkg/logger"
	"neorecon/internal/pkg/useragent"
)

// execute 依次扫描每个标识符, 单个标识符失败不影响其余标识符
func execute(ctx context.Context, cfg *config.Config, kind model.RuleKind, opts *options.ScanOptions, tasks []*model.Task) error {
	if ctx == nil {
		ctx = context.Background()
	}
	run := opts.Run
	out := opts.Output
	if cfg.Probe != nil {
		run.UserAgent = useragent.Pick(cfg.Probe.UserAgentsFile)
	}
	if out.ResultsDir == "" && cfg.Export != nil {
		out.ResultsDir = cfg.Export.ResultsDir
	}

	if !opts.NoUpdate {
		SyncLists(ctx, cfg, run, !run.JSON)
	}

	reg := registry.New(registry.PathsFromConfig(cfg.Lists))
	manager := runner.NewRunnerManager(reg, nil)

	var shared cache.Cache = cache.Noop{}
	if run.UseCache {
		shared = cache.NewMemory()
	}

	var errs []error
	for _, task := range tasks {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := scanOne(ctx, manager, task, opts, out, run, shared); err != nil {
			logger.Errorf("scan %s %s failed: %v", kind, task.Identifier, err)
			errs = append(errs, fmt.Errorf("%s: %w", task.Identifier, err))
		}
	}
	return errors.Join(errs...)
}

func scanOne(ctx context.Context, manager *runner.RunnerManager, task *model.Task, opts *options.ScanOptions,
	out options.OutputOptions, run options.RunOptions, shared cache.Cache) error {

	saveDir := reporter.NewSaveDir(out.ResultsDir, task.Identifier, time.Now())
	job := &runner.Job{
		Task:   task,
		Filter: opts.Filter,
		NoNSFW: opts.NoNSFW,
		Run:    run,
		Hooks:  runner.Hooks{Cache: shared},
	}

	if out.NeedSaveDir() {
		if err := saveDir.Ensure(out.Dump, out.Export); err != nil {
			return err
		}
	}
	if !run.JSON {
		job.Hooks.Presenter = reporter.NewConsolePresenter(os.Stdout, run.Verbose)
		pterm.DefaultSection.Printfln("Checking %s %s", task.Kind, task.Identifier)
	}
	if out.Dump {
		job.Hooks.Dumper = reporter.NewFileDumper(saveDir.DumpDir())
	}
	if out.Export {
		downloader, err := client.NewHTTPClient(client.Options{Timeout: run.Timeout, Proxy: run.Proxy})
		if err != nil {
			return err
		}
		job.Hooks.ImageDownloader = reporter.NewImageSaver(downloader, saveDir.ImagesDir(), run.UserAgent)
	}

	report, err := manager.Execute(ctx, job)
	if err != nil {
		return err
	}
	if out.NeedSaveDir() {
		report.SaveDir = saveDir.Path()
	}

	return buildReporter(out, saveDir).Report(ctx, report)
}

// buildReporter 按输出参数组合报告输出
func buildReporter(out options.OutputOptions, saveDir *reporter.SaveDir) reporter.Reporter {
	multi := reporter.NewMultiReporter()
	if out.JSON {
		multi.Add(reporter.NewJSONReporter(os.Stdout, ""))
	} else {
		multi.Add(reporter.NewConsoleReporter(os.Stdout, false))
	}
	if out.SaveJSON {
		multi.Add(reporter.NewJSONReporter(nil, saveDir.FilePath("json")))
	}
	if out.CSV {
		multi.Add(reporter.NewCsvReporter(func(*model.Report) string { return saveDir.FilePath("csv") }))
	}
	if out.Excel {
		multi.Add(reporter.NewExcelReporter(func(*model.Report) string { return saveDir.FilePath("xlsx") }))
	}
	return multi
}

// SyncLists 同步规则列表, 失败只记录告警, 继续使用本地副本
func SyncLists(ctx context.Context, cfg *config.Config, run options.RunOptions, interactive bool) map[string]listsync.Result {
	doer, err := client.NewHTTPClient(client.Options{Timeout: run.Timeout, Proxy: run.Proxy})
	if err != nil {
		logger.Warnf("list sync skipped: %v", err)
		return nil
	}
	syncer := listsync.NewSynchronizer(&listsync.DoerFetcher{Doer: doer, UserAgent: run.UserAgent})

	var spinner *pterm.SpinnerPrinter
	if interactive {
		spinner, _ = pterm.DefaultSpinner.Start("Updating site lists...")
	}
	results := syncer.SyncAll(ctx, listsync.SourcesFromConfig(cfg.Lists))
	if spinner == nil {
		return results
	}
	for _, r := range results {
		if r == listsync.ResultFailed {
			spinner.Warning("Site lists could not be updated, using local copies")
			return results
		}
	}
	spinner.Success("Site lists are up to date")
	return results
}
