package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/resolver"
	"github.com/sells-group/freight-cli/pkg/portal"
)

var (
	resolveCandidatesPath string
	resolveRecord         bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <destination>",
	Short: "Resolve one destination against autocomplete candidates",
	Long:  "Picks the best candidate for a free-text destination. Candidates come from a file (one label per line) or, without --candidates, from the configured portal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var src resolver.CandidateSource
		if resolveCandidatesPath != "" {
			s, err := loadStaticSource(resolveCandidatesPath)
			if err != nil {
				return err
			}
			src = s
		} else {
			if cfg.Portal.BaseURL == "" {
				return eris.New("either --candidates or portal.base_url (FREIGHT_PORTAL_BASE_URL) is required")
			}
			src = newPortalClient().Session()
		}

		out, err := newResolver().Resolve(ctx, args[0], src)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}
		logOutcome(out)

		if resolveRecord && needsAudit(out) {
			if err := recordOutcome(ctx, out); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveCandidatesPath, "candidates", "", "file with one candidate label per line")
	resolveCmd.Flags().BoolVar(&resolveRecord, "record", false, "record non-clean outcomes in the store")
	rootCmd.AddCommand(resolveCmd)
}

func newResolver() *resolver.Resolver {
	return resolver.New(resolver.Options{
		MinConfidence:    cfg.Resolver.MinConfidence,
		MaxCandidates:    cfg.Resolver.MaxCandidates,
		CandidateTimeout: cfg.Resolver.CandidateTimeout(),
	})
}

func newPortalClient() *portal.Client {
	opts := []portal.ClientOption{}
	if cfg.Portal.RateLimit > 0 {
		opts = append(opts, portal.WithRateLimit(cfg.Portal.RateLimit))
	}
	if cfg.Portal.TimeoutSecs > 0 {
		opts = append(opts, portal.WithTimeout(time.Duration(cfg.Portal.TimeoutSecs)*time.Second))
	}
	return portal.NewClient(cfg.Portal.BaseURL, opts...)
}

func loadStaticSource(path string) (*resolver.StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open candidates %s", path)
	}
	defer f.Close() //nolint:errcheck

	cands, err := resolver.ReadCandidates(f)
	if err != nil {
		return nil, err
	}
	return resolver.NewStaticSource(cands...), nil
}

// needsAudit reports whether an outcome is worth a resolution event.
func needsAudit(out resolver.Outcome) bool {
	return out.Kind != resolver.KindSelected || out.LowConfidence
}

// resolutionEvent converts an outcome into its audit record.
func resolutionEvent(out resolver.Outcome) *model.ResolutionEvent {
	detail := out.Warning
	if out.LowConfidence && out.Candidate != "" {
		b := resolver.Explain(out.Query, out.Candidate)
		note := fmt.Sprintf("low confidence: rule %q scored %d", b.Rule, b.Total)
		if detail != "" {
			detail += "; "
		}
		detail += note
	}
	if out.Kind == resolver.KindNoRatesAvailable && len(out.Unavailable) > 0 {
		if detail != "" {
			detail += "; "
		}
		detail += fmt.Sprintf("%d option(s) without rates", len(out.Unavailable))
	}
	return &model.ResolutionEvent{
		Destination: out.Query.Raw,
		Kind:        string(out.Kind),
		Prefix:      out.Prefix,
		Selected:    out.Candidate,
		Score:       out.Score,
		Detail:      detail,
	}
}

func recordOutcome(ctx context.Context, out resolver.Outcome) error {
	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "init store")
	}
	defer st.Close() //nolint:errcheck
	return st.RecordResolution(ctx, resolutionEvent(out))
}

func logOutcome(out resolver.Outcome) {
	fields := []zap.Field{
		zap.String("destination", out.Query.Raw),
		zap.String("kind", string(out.Kind)),
		zap.String("prefix", out.Prefix),
		zap.String("candidate", out.Candidate),
		zap.Int("score", out.Score),
		zap.Int("considered", out.Considered),
	}
	switch {
	case out.Kind == resolver.KindSelected && !out.LowConfidence:
		zap.L().Info("destination resolved", fields...)
	default:
		zap.L().Warn("destination needs review", append(fields, zap.String("warning", out.Warning))...)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
