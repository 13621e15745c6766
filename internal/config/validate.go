package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
	case "resolve", "resolve-batch":
		if c.Resolver.MinConfidence < 0 {
			add("resolver.min_confidence must be >= 0")
		}
		if c.Resolver.MaxCandidates < 1 {
			add("resolver.max_candidates must be >= 1")
		}
		if c.Resolver.CandidateTimeoutSecs < 1 {
			add("resolver.candidate_timeout_secs must be >= 1")
		}
		if mode == "resolve-batch" {
			if c.Portal.BaseURL == "" {
				add("portal.base_url is required")
			}
			if c.Batch.MaxConcurrentDestinations < 1 || c.Batch.MaxConcurrentDestinations > 50 {
				add("batch.max_concurrent_destinations must be between 1 and 50")
			}
		}
	case "surcharge", "import-surcharges":
		if c.Surcharge.BaseFilename == "" {
			add("surcharge.base_filename is required")
		}
	case "combine", "import-rates":
		if mode == "combine" && c.Rates.OceanFile == "" {
			add("rates.ocean_file is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}
