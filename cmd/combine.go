package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/freight-cli/internal/fetcher"
	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/rates"
	"github.com/sells-group/freight-cli/internal/store"
	"github.com/sells-group/freight-cli/internal/workbook"
)

var (
	combineInland    string
	combineOcean     string
	combineOutputDir string
	combineNoStore   bool
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine inland and ocean rate sheets into ranked routes",
	Long:  "Joins the latest inland rate sheet with the ocean rate sheet by POD and container size, ranks the routes per destination and writes the processed workbook.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		inland := combineInland
		if inland == "" {
			latest, err := workbook.LatestInlandFile(cfg.Rates.DownloadDir)
			if err != nil {
				return err
			}
			inland = latest
		}
		ocean := combineOcean
		if ocean == "" {
			ocean = cfg.Rates.OceanFile
		}
		outDir := combineOutputDir
		if outDir == "" {
			outDir = cfg.Rates.OutputDir
		}

		now := time.Now()
		run, res, err := combineFiles(ctx, inland, ocean, filepath.Join(outDir, workbook.ProcessedFilename(now)))
		if err != nil {
			return err
		}

		if !combineNoStore {
			st, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer st.Close() //nolint:errcheck
			if err := persistRun(ctx, st, run, res.Routes); err != nil {
				return err
			}
		}

		zap.L().Info("rates combined",
			zap.String("inland", inland),
			zap.String("ocean", ocean),
			zap.String("output", run.OutputFile),
			zap.Int("total", res.Total),
			zap.Int("matched", res.Matched),
		)
		return nil
	},
}

func init() {
	f := combineCmd.Flags()
	f.StringVar(&combineInland, "inland", "", "inland rate sheet (default latest in rates.download_dir)")
	f.StringVar(&combineOcean, "ocean", "", "ocean rate sheet (default from config)")
	f.StringVar(&combineOutputDir, "output-dir", "", "directory for the processed workbook")
	f.BoolVar(&combineNoStore, "no-store", false, "only write the workbook")
	rootCmd.AddCommand(combineCmd)
}

// combineFiles reads both sheets concurrently, combines them and writes the
// processed workbook to output.
func combineFiles(ctx context.Context, inlandPath, oceanPath, output string) (*model.CombineRun, rates.Result, error) {
	var (
		inland []rates.InlandRow
		ocean  []rates.OceanRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		grid, err := fetcher.ReadGrid(gctx, inlandPath, fetcher.Options{})
		if err != nil {
			return eris.Wrapf(err, "read inland %s", inlandPath)
		}
		inland, err = rates.ParseInland(grid)
		return err
	})
	g.Go(func() error {
		grid, err := fetcher.ReadGrid(gctx, oceanPath, fetcher.Options{})
		if err != nil {
			return eris.Wrapf(err, "read ocean %s", oceanPath)
		}
		ocean, err = rates.ParseOcean(grid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, rates.Result{}, err
	}

	res := rates.Combine(inland, ocean)
	if err := workbook.WriteSheet(output, "Processed", rates.ProcessedRows(res.Routes)); err != nil {
		return nil, res, err
	}

	run := &model.CombineRun{
		InlandFile: inlandPath,
		OceanFile:  oceanPath,
		OutputFile: output,
		Total:      res.Total,
		Matched:    res.Matched,
	}
	return run, res, nil
}

// persistRun records run and replaces the stored routes with routes.
func persistRun(ctx context.Context, st store.Store, run *model.CombineRun, routes []model.RankedRoute) error {
	if err := st.CreateCombineRun(ctx, run); err != nil {
		return eris.Wrap(err, "create combine run")
	}
	if err := st.SaveRankedRoutes(ctx, run.ID, routes); err != nil {
		return eris.Wrap(err, "save ranked routes")
	}
	return nil
}
