package main

import (
	"context"
	"net/http"

	"github.com/sells-group/fraudcheck-cli/internal/config"
	"github.com/sells-group/fraudcheck-cli/internal/store"
	"github.com/sells-group/fraudcheck-cli/pkg/minfraud"
)

// newMinfraudClient builds the scoring client from configuration.
func newMinfraudClient(cfg *config.Config) minfraud.Client {
	opts := []minfraud.Option{
		minfraud.WithBaseURL(cfg.MaxMind.BaseURL),
		minfraud.WithRequestedType(cfg.MaxMind.RequestedType),
		minfraud.WithHTTPClient(&http.Client{Timeout: cfg.MaxMind.Timeout()}),
	}
	if cfg.MaxMind.RequestsPerSecond > 0 {
		opts = append(opts, minfraud.WithRateLimit(cfg.MaxMind.RequestsPerSecond, cfg.MaxMind.RateBurst))
	}
	return minfraud.NewClient(cfg.MaxMind.LicenseKey, opts...)
}

// openStore opens and migrates the check-history store. Returns nil when
// persistence is disabled by configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
