// Package history persists acquisition checkpoints and the cross-session set
// of already-seen item identifiers.
package history

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Store is the persistence interface for acquisition history. It is injected
// into the session controller; nothing reads or writes checkpoint files
// ambiently.
type Store interface {
	// GetCheckpoint returns the checkpoint for a query identity, or nil if
	// the query has never been seen.
	GetCheckpoint(ctx context.Context, queryID string) (*model.Checkpoint, error)

	// SaveCheckpoint upserts a checkpoint. LastPage never regresses: saving
	// a page lower than the stored one leaves the stored page unchanged,
	// which also makes per-page progress writes idempotent.
	SaveCheckpoint(ctx context.Context, cp model.Checkpoint) error

	// ResetCheckpoint drops the checkpoint for a query identity so the next
	// session starts from page 1.
	ResetCheckpoint(ctx context.Context, queryID string) error

	// ListCheckpoints returns all stored checkpoints.
	ListCheckpoints(ctx context.Context) ([]model.Checkpoint, error)

	// MarkSeen records item identifiers as processed for a query identity.
	MarkSeen(ctx context.Context, queryID string, ids []string) error

	// FilterSeen returns the subset of ids not yet marked seen, preserving
	// input order.
	FilterSeen(ctx context.Context, queryID string, ids []string) ([]string, error)

	Migrate(ctx context.Context) error
	Close() error
}
