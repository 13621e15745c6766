package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/fetcher"
	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/store"
	"github.com/sells-group/freight-cli/internal/surcharge"
	"github.com/sells-group/freight-cli/internal/workbook"
)

var (
	surchargeTo       string
	surchargeFrom     string
	surchargeVia      string
	surchargeSheet    string
	surchargeSelector string
	surchargeOutput   string
)

var surchargeCmd = &cobra.Command{
	Use:   "surcharge <breakdown-file>",
	Short: "Parse a surcharge breakdown table and export it",
	Long:  "Reads a rendered surcharge breakdown (.html, .xlsx or .csv), extracts its charges, stores the table and appends it to the day's surcharge workbook, so the destinations of one day share a file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		route := model.RouteInfo{From: surchargeFrom, To: surchargeTo, Via: surchargeVia}
		if route.From == "" {
			route.From = cfg.Surcharge.Origin
		}

		t, err := parseBreakdown(ctx, args[0], route, fetcher.Options{Sheet: surchargeSheet, Selector: surchargeSelector})
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		path, err := exportSurcharges(ctx, st, surchargeOutput, time.Now(), t)
		if err != nil {
			return err
		}

		zap.L().Info("surcharge table exported",
			zap.String("to", route.To),
			zap.Int("charges", len(t.Charges)),
			zap.Int("warnings", len(t.Warnings)),
			zap.String("file", path),
		)
		return nil
	},
}

func init() {
	f := surchargeCmd.Flags()
	f.StringVar(&surchargeTo, "to", "", "destination the breakdown was quoted for")
	f.StringVar(&surchargeFrom, "from", "", "origin (default from config)")
	f.StringVar(&surchargeVia, "via", "", "transshipment point, if any")
	f.StringVar(&surchargeSheet, "sheet", "", "xlsx sheet holding the breakdown")
	f.StringVar(&surchargeSelector, "selector", "", "CSS selector of the html table")
	f.StringVar(&surchargeOutput, "output", "", "output directory (default from config)")
	_ = surchargeCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(surchargeCmd)
}

// parseBreakdown reads path and extracts the charges of one route.
func parseBreakdown(ctx context.Context, path string, route model.RouteInfo, opts fetcher.Options) (*model.SurchargeTable, error) {
	grid, err := fetcher.ReadGrid(ctx, path, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "read breakdown %s", path)
	}
	t, err := surcharge.Parse(surcharge.Rows(grid), route)
	if err != nil {
		return nil, err
	}
	return t.Model(), nil
}

// exportSurcharges stores tables and appends them to the day's workbook in
// dir. It returns the workbook path.
func exportSurcharges(ctx context.Context, st store.Store, dir string, now time.Time, tables ...*model.SurchargeTable) (string, error) {
	if dir == "" {
		dir = cfg.Surcharge.OutputDir
	}
	for _, t := range tables {
		if t.ExtractedAt.IsZero() {
			t.ExtractedAt = now
		}
		if err := st.SaveSurchargeTable(ctx, t); err != nil {
			return "", eris.Wrapf(err, "save surcharge table %s", t.Route.To)
		}
	}

	base := cfg.Surcharge.BaseFilename
	if filepath.Ext(base) == "" {
		base += ".xlsx"
	}
	name, err := workbook.SessionFilename(dir, base, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := workbook.AppendSurcharges(path, cfg.Surcharge.Origin, now, tables...); err != nil {
		return "", err
	}
	return path, nil
}
