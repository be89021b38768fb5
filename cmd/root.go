package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitch-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pitch-intel",
	Short: "Sales-intelligence scrape and research backend",
	Long:  "Crawls company websites via Firecrawl, researches companies via Perplexity, and aggregates both into per-company sales-intelligence records.",
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
