package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "status-cli",
	Short: "Automated application status lookup for the education portal",
	Long:  "Reads student registration tokens from a spreadsheet, drives a browser through the portal's tracking form (solving the access challenge along the way), and writes an aggregated status report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
