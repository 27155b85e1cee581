package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu   sync.RWMutex
	runs map[string]domain.RunManifest
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{
		runs: make(map[string]domain.RunManifest),
	}
}

// Save stores or updates a manifest.
func (s *ManifestStore) Save(_ context.Context, manifest domain.RunManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	manifest.TraceFiles = append([]string(nil), manifest.TraceFiles...)
	s.runs[manifest.ID] = manifest
	return nil
}

// Get retrieves a manifest by ID.
func (s *ManifestStore) Get(_ context.Context, id string) (*domain.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// Latest returns the newest manifest with the given status.
func (s *ManifestStore) Latest(ctx context.Context, status domain.RunStatus) (*domain.RunManifest, error) {
	runs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range runs {
		if m.Status == status {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all manifests, newest first.
func (s *ManifestStore) List(_ context.Context) ([]domain.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.RunManifest, 0, len(s.runs))
	for _, m := range s.runs {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
