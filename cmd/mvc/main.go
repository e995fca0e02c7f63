// mvc 是一个示例应用：用户列表、详情页和 JSON 接口
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "mvc",
		Short:         "最小的 MVC 示例应用",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径，为空时只使用默认值和 MVC_* 环境变量")

	root.AddCommand(
		newServeCmd(&cfgPath),
		newRoutesCmd(&cfgPath),
		newMigrateCmd(&cfgPath),
	)
	return root
}
