package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/freight-cli/internal/config"
	"github.com/sells-group/freight-cli/internal/resolver"
	"github.com/sells-group/freight-cli/internal/store"
	"github.com/sells-group/freight-cli/pkg/portal"
)

var resolveBatchAll bool

var resolveBatchCmd = &cobra.Command{
	Use:   "resolve-batch",
	Short: "Resolve every configured destination through the portal",
	Long:  "Resolves the destinations of the destination config in parallel, records outcomes that need review, and writes back the portal location code of each selected destination.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dests, err := config.LoadDestinations(cfg.Destinations.ConfigFile, cfg.Destinations.ListFile)
		if err != nil {
			return err
		}
		names := dests.Missing()
		if resolveBatchAll {
			names = dests.Names()
		}
		if len(names) == 0 {
			zap.L().Info("no destinations to resolve")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		client := newPortalClient()
		results := resolveBatch(ctx, names, newResolver(), func() selectionSource { return client.Session() },
			cfg.Batch.MaxConcurrentDestinations)

		updated, err := applyResults(ctx, st, dests, results)
		if err != nil {
			return err
		}
		if updated > 0 {
			if err := config.SaveDestinations(cfg.Destinations.ConfigFile, dests); err != nil {
				return err
			}
		}

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		zap.L().Info("batch resolution complete",
			zap.Int("destinations", len(names)),
			zap.Int("location_codes_updated", updated),
			zap.Int("failed", failed),
		)
		if failed > 0 {
			return eris.Errorf("resolve-batch: %d of %d destinations failed", failed, len(names))
		}
		return nil
	},
}

func init() {
	resolveBatchCmd.Flags().BoolVar(&resolveBatchAll, "all", false, "re-resolve destinations that already have a location code")
	rootCmd.AddCommand(resolveBatchCmd)
}

// selectionSource is a candidate source that reports what it committed.
type selectionSource interface {
	resolver.CandidateSource
	Selection() (portal.Option, bool)
}

type batchResult struct {
	Destination  string
	Outcome      resolver.Outcome
	LocationCode string
	Err          error
}

// resolveBatch resolves names with at most limit in flight. Each worker
// gets its own source. Results keep the order of names.
func resolveBatch(ctx context.Context, names []string, r *resolver.Resolver, newSource func() selectionSource, limit int) []batchResult {
	if limit < 1 {
		limit = 1
	}
	results := make([]batchResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			log := zap.L().With(zap.String("destination", name))
			start := time.Now()
			src := newSource()

			res := batchResult{Destination: name}
			res.Outcome, res.Err = r.Resolve(gctx, name, src)
			if res.Err != nil {
				log.Error("resolution failed", zap.Error(res.Err))
			} else {
				if opt, ok := src.Selection(); ok && res.Outcome.Kind.Committed() {
					res.LocationCode = opt.LocationCode
				}
				logOutcome(res.Outcome)
			}
			log.Debug("resolution finished", zap.Duration("elapsed", time.Since(start)))
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// applyResults records outcomes that need review and copies location codes
// of committed selections into dests. It returns the number of updated
// destinations.
func applyResults(ctx context.Context, st store.Store, dests config.Destinations, results []batchResult) (int, error) {
	updated := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if needsAudit(r.Outcome) {
			if err := st.RecordResolution(ctx, resolutionEvent(r.Outcome)); err != nil {
				return updated, eris.Wrapf(err, "record resolution %s", r.Destination)
			}
		}
		if r.LocationCode == "" {
			continue
		}
		d := dests[r.Destination]
		if d.LocationCode != r.LocationCode {
			d.LocationCode = r.LocationCode
			dests[r.Destination] = d
			updated++
		}
	}
	return updated, nil
}
