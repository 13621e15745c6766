package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/config"
)

var cfg *config.Config

// validatedCommands have their configuration checked before running.
var validatedCommands = map[string]bool{
	"serve":             true,
	"resolve":           true,
	"resolve-batch":     true,
	"surcharge":         true,
	"import-surcharges": true,
	"combine":           true,
	"import-rates":      true,
}

var rootCmd = &cobra.Command{
	Use:   "freight-cli",
	Short: "Freight quote normalization toolkit",
	Long:  "Resolves destinations against carrier autocomplete, parses surcharge breakdowns, combines inland and ocean rate sheets into ranked routes, and serves them over REST.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if !validatedCommands[cmd.Name()] {
			return nil
		}
		return cfg.Validate(cmd.Name())
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
