package main

import (
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"neorecon/cmd/neorecon/scan"
	"neorecon/internal/core/options"
	"neorecon/internal/pkg/useragent"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "同步站点规则列表",
		Long:  "从配置的远端地址下载站点规则列表; 本地内容与远端一致时不写入, 失败时保留本地副本。",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := currentConfig()
			run := options.FromConfig(cfg)
			run.UserAgent = useragent.Pick(cfg.Probe.UserAgentsFile)

			results := scan.SyncLists(cmd.Context(), cfg, run, true)
			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)

			table := pterm.TableData{{"List", "Result"}}
			for _, name := range names {
				table = append(table, []string{name, string(results[name])})
			}
			return pterm.DefaultTable.WithHasHeader(true).WithData(table).Render()
		},
	}
}
