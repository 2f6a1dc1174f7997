package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heronhoga/bars-fe/config"
	"github.com/heronhoga/bars-fe/logger"
	"github.com/heronhoga/bars-fe/server"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bars",
	Short: "BARS is a place to share and discover beats.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   true,
			Production: cfg.Production(),
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 默认启动 web 服务
		return server.Start(cfg)
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
