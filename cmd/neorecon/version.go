package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neorecon/internal/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Long:  "显示 NeoRecon 的版本信息，包括版本号、构建时间、Git 提交和 Go 版本。",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetInfo()
			fmt.Printf("NeoRecon %s\n", info.Version)
			fmt.Printf("API Version: %s\n", info.APIVersion)
			fmt.Printf("Build Time: %s\n", info.BuildTime)
			fmt.Printf("Git Commit: %s\n", info.GitCommit)
			fmt.Printf("Go Version: %s\n", info.GoVersion)
		},
	}
}
