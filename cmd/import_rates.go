package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/fetcher"
	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/rates"
)

var importRatesCmd = &cobra.Command{
	Use:   "import-rates <processed-workbook>",
	Short: "Load a processed rate workbook into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		grid, err := fetcher.ReadGrid(ctx, args[0], fetcher.Options{})
		if err != nil {
			return eris.Wrapf(err, "read processed %s", args[0])
		}
		routes, err := rates.ParseProcessed(grid)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		run := &model.CombineRun{OutputFile: args[0], Total: len(routes), Matched: countMatched(routes)}
		if err := persistRun(ctx, st, run, routes); err != nil {
			return err
		}
		zap.L().Info("ranked routes imported",
			zap.String("file", args[0]),
			zap.Int("routes", len(routes)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importRatesCmd)
}

func countMatched(routes []model.RankedRoute) int {
	n := 0
	for _, r := range routes {
		if r.Matched {
			n++
		}
	}
	return n
}
