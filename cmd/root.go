package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lotsync",
	Short: "Dealer inventory matching and reconciliation",
	Long: "Imports dealer stock snapshots, matches them against the live catalog feed " +
		"with a weighted fuzzy scorer, and reconciles prior exports against fresh feeds.",
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
