package driven

import (
	"context"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// ManifestStore persists run manifests.
type ManifestStore interface {
	// Save stores or updates a manifest.
	Save(ctx context.Context, manifest domain.RunManifest) error

	// Get retrieves a manifest by ID.
	Get(ctx context.Context, id string) (*domain.RunManifest, error)

	// Latest returns the most recently created manifest with the given status.
	// Returns domain.ErrNotFound if there is none.
	Latest(ctx context.Context, status domain.RunStatus) (*domain.RunManifest, error)

	// List returns all manifests, newest first.
	List(ctx context.Context) ([]domain.RunManifest, error)
}
