package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/radar-trace/internal/adapters/driven/config/file"
	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
)

// mockExtractor implements driving.Extractor for testing.
type mockExtractor struct {
	runDate time.Time
	err     error
}

func (m *mockExtractor) Extract(_ context.Context, runDate time.Time) (*domain.RunManifest, error) {
	m.runDate = runDate
	if m.err != nil {
		return nil, m.err
	}
	return &domain.RunManifest{
		ID:            "run-1",
		AuditFile:     "radar_audit_file_" + runDate.Format("2006-01-02") + ".csv",
		TraceFiles:    []string{"radar_audit_file_" + runDate.Format("2006-01-02") + "_to_trace.csv"},
		RequestNumber: 1042,
		Status:        domain.RunStatusExtracted,
	}, nil
}

// mockReconciler implements driving.Reconciler for testing.
type mockReconciler struct {
	opts    driving.ReconcileOptions
	summary *domain.RunSummary
	err     error
}

func (m *mockReconciler) Reconcile(_ context.Context, opts driving.ReconcileOptions) (*domain.RunSummary, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	s := *m.summary
	s.DryRun = opts.DryRun
	return &s, nil
}

// mockCatalog implements driving.RunCatalog for testing.
type mockCatalog struct {
	runs []domain.RunManifest
}

func (m *mockCatalog) List(_ context.Context) ([]domain.RunManifest, error) {
	return m.runs, nil
}

func (m *mockCatalog) Get(_ context.Context, id string) (*domain.RunManifest, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockBuilder implements Builder for testing.
type mockBuilder struct {
	cfg        domain.Config
	loadErr    error
	loadedFrom string
	extractor  *mockExtractor
	reconciler *mockReconciler
	catalog    *mockCatalog
}

func (m *mockBuilder) LoadConfig(path string) (domain.Config, error) {
	m.loadedFrom = path
	return m.cfg, m.loadErr
}

func (m *mockBuilder) ConfigStore(path string) (driven.ConfigStore, error) {
	return file.NewConfigStore(path)
}

func (m *mockBuilder) Extractor(_ context.Context, _ domain.Config) (driving.Extractor, error) {
	return m.extractor, nil
}

func (m *mockBuilder) Reconciler(_ context.Context, _ domain.Config) (driving.Reconciler, error) {
	return m.reconciler, nil
}

func (m *mockBuilder) Runs(_ context.Context, _ domain.Config) (driving.RunCatalog, error) {
	return m.catalog, nil
}

func (m *mockBuilder) Close() error {
	return nil
}

func newMockBuilder() *mockBuilder {
	cfg := domain.DefaultConfig()
	cfg.Logging.File = ""
	return &mockBuilder{
		cfg:       cfg,
		extractor: &mockExtractor{},
		reconciler: &mockReconciler{summary: &domain.RunSummary{
			RunID:          "run-1",
			RowsJoined:     3,
			JoinFailures:   []domain.JoinFailure{{Line: 5, Identifier: "12345", Reason: "no audit row"}},
			MalformedDates: 1,
			Discrepancies:  map[domain.Category]int{domain.CategoryDateOfDeath: 2},
			Corrections:    2,
			ReportFile:     "radar_audit_file_2024-01-31.xlsx",
		}},
		catalog: &mockCatalog{},
	}
}

// setupCLITest installs a mock builder and resets flag state between runs.
func setupCLITest(t *testing.T) *mockBuilder {
	t.Helper()
	b := newMockBuilder()
	oldBuilder := builder
	builder = b
	t.Cleanup(func() {
		builder = oldBuilder
		configPath = "config.toml"
		verbose = false
		extractDate = ""
		reconcileRunID = ""
		reconcileTracedFile = ""
		reconcileDryRun = false
		reconcileWait = 0
		runsJSON = false
		rootCmd.SetArgs(nil)
	})
	return b
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
