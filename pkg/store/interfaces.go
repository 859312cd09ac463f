package store

import (
	"context"

	"sliderlabel/pkg/model"
)

// RunStore handles placement run persistence.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run) error
	// GetRun returns nil, nil when the run does not exist.
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the newest runs first. A limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
}

// Store defines the repository interface.
type Store interface {
	RunStore

	// Close closes the store connection.
	Close() error
}
