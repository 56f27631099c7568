// Package store persists completed fraud checks locally so operators can
// review recent scoring activity without re-querying the paid service.
package store

import (
	"context"

	"github.com/sells-group/fraudcheck-cli/internal/model"
)

// Store is the check-history persistence interface.
type Store interface {
	// Migrate creates or upgrades the schema. Safe to call on every start.
	Migrate(ctx context.Context) error
	// SaveCheck records one completed check and returns it with its
	// generated id and timestamp.
	SaveCheck(ctx context.Context, ip string, result model.CheckResult) (*model.Check, error)
	// RecentChecks returns up to limit checks, newest first.
	RecentChecks(ctx context.Context, limit int) ([]model.Check, error)
	Close() error
}
