package scan

import (
	"github.com/spf13/cobra"

	"neorecon/internal/core/model"
	"neorecon/internal/core/options"
)

func NewUsernameScanCmd(cfg ConfigProvider) *cobra.Command {
	opts := options.NewUsernameScanOptions()

	cmd := &cobra.Command{
		Use:   "username [username...]",
		Short: "按用户名检测账号",
		Long: `在用户名规则列表覆盖的站点上检测一个或多个用户名。

示例:
  neorecon scan username alice
  neorecon scan username john doe --permute --filter "cat=social"
  neorecon scan username --username-file users.txt --csv --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			opts.Usernames = args
			opts.Output = globalOutputOptions
			opts.Run = resolveRunOptions(cmd, c)
			tasks, err := tasksFrom(opts)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), c, model.RuleKindUsername, &opts.ScanOptions, tasks)
		},
	}

	addFilterFlags(cmd, &opts.ScanOptions)
	flags := cmd.Flags()
	flags.StringVar(&opts.File, "username-file", "", "用户名文件, 每行一个")
	flags.BoolVar(&opts.Permute, "permute", false, "对给出的用户名片段做排列组合 (不含单个片段)")
	flags.BoolVar(&opts.PermuteAll, "permute-all", false, "对给出的用户名片段做排列组合 (含单个片段)")

	return cmd
}
