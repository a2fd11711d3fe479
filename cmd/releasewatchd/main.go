package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"releasewatch/internal/config"
	"releasewatch/internal/daemonrun"
)

func main() {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:           "releasewatchd",
		Short:         "Run the release announcement daemon in the foreground",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, resolved, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				ConfigPath: resolved,
				LogLevel:   logLevel,
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "releasewatchd: %v\n", err)
		os.Exit(1)
	}
}
