package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/fetcher"
	"github.com/sells-group/freight-cli/internal/surcharge"
)

var importSurchargesSheet string

var importSurchargesCmd = &cobra.Command{
	Use:   "import-surcharges <workbook>",
	Short: "Load a surcharge export workbook into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		grid, err := fetcher.ReadGrid(ctx, args[0], fetcher.Options{Sheet: importSurchargesSheet})
		if err != nil {
			return eris.Wrapf(err, "read export %s", args[0])
		}
		tables, err := surcharge.ParseExport(grid)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		for _, t := range tables {
			if err := st.SaveSurchargeTable(ctx, t); err != nil {
				return eris.Wrapf(err, "save surcharge table %s", t.Route.To)
			}
		}
		zap.L().Info("surcharge tables imported",
			zap.String("file", args[0]),
			zap.Int("tables", len(tables)),
		)
		return nil
	},
}

func init() {
	importSurchargesCmd.Flags().StringVar(&importSurchargesSheet, "sheet", "", "sheet to read (default first)")
	rootCmd.AddCommand(importSurchargesCmd)
}
