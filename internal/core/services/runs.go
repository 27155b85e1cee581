package services

import (
	"context"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
)

// Ensure RunService implements the interface.
var _ driving.RunCatalog = (*RunService)(nil)

// RunService lists recorded runs.
type RunService struct {
	manifests driven.ManifestStore
}

// NewRunService creates a new run service.
func NewRunService(manifests driven.ManifestStore) *RunService {
	return &RunService{manifests: manifests}
}

// List returns all runs, newest first.
func (s *RunService) List(ctx context.Context) ([]domain.RunManifest, error) {
	return s.manifests.List(ctx)
}

// Get returns one run.
func (s *RunService) Get(ctx context.Context, id string) (*domain.RunManifest, error) {
	return s.manifests.Get(ctx, id)
}
