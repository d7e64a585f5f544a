package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "climfill",
	Short: "District climate data completion pipeline",
	Long:  "Completes sparse district-level climate observations over the full district x period cross-product via neighbor averaging and inverse-distance fallback, with per-cell provenance.",
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
