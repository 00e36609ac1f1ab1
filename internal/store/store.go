// Package store persists annotation-run history, so interrupted batches
// can be audited and resumed work attributed to its original
// invocation. SQLite is the default backend; Postgres is available for
// shared deployments and additionally archives frozen datasets.
package store

import (
	"context"

	"github.com/crisislab/triage-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Model  string          `json:"model,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// RunCounts carries the row tallies reported when a run finishes or is
// interrupted.
type RunCounts struct {
	Total     int
	Completed int
	Filtered  int
	Failed    int
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, run model.AnnotationRun) (*model.AnnotationRun, error)
	UpdateRun(ctx context.Context, runID string, status model.RunStatus, counts RunCounts) error
	GetRun(ctx context.Context, runID string) (*model.AnnotationRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnnotationRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
