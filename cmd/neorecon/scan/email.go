package scan

import (
	"github.com/spf13/cobra"

	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
)

func NewEmailScanCmd(cfg ConfigProvider) *cobra.Command {
	opts := options.NewEmailScanOptions()

	cmd := &cobra.Command{
		Use:   "email [email...]",
		Short: "按邮箱检测账号",
		Long: `在邮箱规则列表覆盖的站点上检测一个或多个邮箱是否已注册。

示例:
  neorecon scan email alice@example.com
  neorecon scan email --email-file emails.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			opts.Emails = args
			opts.Output = globalOutputOptions
			opts.Run = resolveRunOptions(cmd, c)
			tasks, err := tasksFrom(opts)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), c, model.RuleKindEmail, &opts.ScanOptions, tasks)
		},
	}

	addFilterFlags(cmd, &opts.ScanOptions)
	cmd.Flags().StringVar(&opts.File, "email-file", "", "邮箱文件, 每行一个")

	return cmd
}
