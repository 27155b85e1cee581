package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "data", "runs.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testManifest(id string, created time.Time) domain.RunManifest {
	return domain.RunManifest{
		ID:            id,
		AuditFile:     "radar_audit_file_" + created.Format("2006-01-02") + ".csv",
		TraceFiles:    []string{"radar_audit_file_" + created.Format("2006-01-02") + "_to_trace.csv"},
		RequestNumber: 17,
		Status:        domain.RunStatusExtracted,
		CreatedAt:     created,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := setupTestStore(t)
	assert.FileExists(t, store.Path())

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenSkipsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.ManifestStore().Save(context.Background(),
		testManifest("a", time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.ManifestStore().Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestManifestStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t).ManifestStore()
	ctx := context.Background()
	created := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testManifest("run-1", created)))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "radar_audit_file_2024-01-31.csv", got.AuditFile)
	assert.Equal(t, []string{"radar_audit_file_2024-01-31_to_trace.csv"}, got.TraceFiles)
	assert.Equal(t, int64(17), got.RequestNumber)
	assert.Equal(t, domain.RunStatusExtracted, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, got.ReconciledAt.IsZero())
	assert.Empty(t, got.ReportFile)
}

func TestManifestStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t).ManifestStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManifestStore_SaveUpdates(t *testing.T) {
	store := setupTestStore(t).ManifestStore()
	ctx := context.Background()
	m := testManifest("run-1", time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, m))

	m.Status = domain.RunStatusReconciled
	m.ReconciledAt = time.Date(2024, 2, 7, 12, 0, 0, 0, time.UTC)
	m.ReportFile = "radar_audit_file_2024-01-31.xlsx"
	require.NoError(t, store.Save(ctx, m))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusReconciled, got.Status)
	assert.True(t, m.ReconciledAt.Equal(got.ReconciledAt))
	assert.Equal(t, "radar_audit_file_2024-01-31.xlsx", got.ReportFile)

	runs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestManifestStore_LatestAndList(t *testing.T) {
	store := setupTestStore(t).ManifestStore()
	ctx := context.Background()

	old := testManifest("old", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	mid := testManifest("mid", time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	mid.Status = domain.RunStatusReconciled
	recent := testManifest("recent", time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC))
	for _, m := range []domain.RunManifest{mid, recent, old} {
		require.NoError(t, store.Save(ctx, m))
	}

	latest, err := store.Latest(ctx, domain.RunStatusExtracted)
	require.NoError(t, err)
	assert.Equal(t, "recent", latest.ID)

	latest, err = store.Latest(ctx, domain.RunStatusReconciled)
	require.NoError(t, err)
	assert.Equal(t, "mid", latest.ID)

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "recent", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)
}

func TestManifestStore_Latest_NoneWithStatus(t *testing.T) {
	store := setupTestStore(t).ManifestStore()

	_, err := store.Latest(context.Background(), domain.RunStatusExtracted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManifestStore_NilTraceFiles(t *testing.T) {
	store := setupTestStore(t).ManifestStore()
	ctx := context.Background()
	m := testManifest("run-1", time.Now())
	m.TraceFiles = nil
	require.NoError(t, store.Save(ctx, m))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, got.TraceFiles)
}
