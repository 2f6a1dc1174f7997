package cmd

import (
	"github.com/spf13/cobra"

	"github.com/heronhoga/bars-fe/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动BARS服务器",
	Long:  `启动BARS的HTTP服务器，提供页面、表单处理和 /ws/feed 实时会话`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
