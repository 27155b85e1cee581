package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// Extractor runs stage 1: audit extraction and trace request hand-off.
type Extractor interface {
	// Extract queries Radar, writes the audit and request files, delivers the
	// request to the tracing inbox and records a run manifest dated runDate.
	Extract(ctx context.Context, runDate time.Time) (*domain.RunManifest, error)
}

// Reconciler runs stage 2: reconciliation of a traced file against its audit file.
type Reconciler interface {
	// Reconcile produces the discrepancy report and applies corrective writes.
	Reconcile(ctx context.Context, opts ReconcileOptions) (*domain.RunSummary, error)
}

// ReconcileOptions selects what a reconciliation pass works on.
type ReconcileOptions struct {
	// RunID picks a specific run. Empty means the latest extracted run.
	RunID string

	// TracedFile overrides outbox collection with a local traced file.
	TracedFile string

	// Wait is how long to wait for the traced file to reach the outbox. Zero fails at once.
	Wait time.Duration

	// DryRun writes the report but never touches Radar or the manifest.
	DryRun bool
}

// RunCatalog lists recorded runs.
type RunCatalog interface {
	// List returns all runs, newest first.
	List(ctx context.Context) ([]domain.RunManifest, error)

	// Get returns one run.
	Get(ctx context.Context, id string) (*domain.RunManifest, error)
}
