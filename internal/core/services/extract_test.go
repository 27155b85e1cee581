package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/radar-trace/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

var runDate = time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

func testConfig(workDir string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Paths.WorkDir = workDir
	return cfg
}

type extractFixture struct {
	svc       *ExtractService
	files     *fakeFiles
	exchange  *fakeExchange
	manifests *memory.ManifestStore
	metrics   *fakeMetrics
	sequence  *fakeSequence
}

func newExtractFixture(cfg domain.Config, patients []domain.SourceRecord) *extractFixture {
	f := &extractFixture{
		files:     newFakeFiles(),
		exchange:  &fakeExchange{},
		manifests: memory.NewManifestStore(),
		metrics:   &fakeMetrics{},
		sequence:  &fakeSequence{next: 41},
	}
	f.svc = NewExtractService(memory.NewRadarStore(patients), f.sequence, f.files, f.exchange,
		f.manifests, f.metrics, cfg)
	return f
}

func TestAuditFileName(t *testing.T) {
	assert.Equal(t, "radar_audit_file_2024-01-31.csv", AuditFileName(runDate))
}

func TestExtract_WritesAuditAndRequest(t *testing.T) {
	patients := []domain.SourceRecord{
		auditRecord("1", "9434765919", "JOHN", "SMITH", "1980-03-15", "", "1", "AB1 2CD"),
		auditRecord("2", "", "JANE", "DOE", "", "", "2", "XY9 8ZW"),
	}
	f := newExtractFixture(testConfig("work"), patients)

	m, err := f.svc.Extract(context.Background(), runDate)
	require.NoError(t, err)

	assert.Equal(t, "radar_audit_file_2024-01-31.csv", m.AuditFile)
	assert.Equal(t, int64(42), m.RequestNumber)
	assert.Equal(t, domain.RunStatusExtracted, m.Status)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, []string{"radar_audit_file_2024-01-31_to_trace.csv"}, m.TraceFiles)

	auditPath := filepath.Join("work", "radar_audit_file_2024-01-31.csv")
	assert.Equal(t, patients, f.files.audits[auditPath])
	assert.Equal(t, domain.DefaultConfig().SheetSettings.AuditCSVHeadings, f.files.headings[auditPath])

	req := f.files.requests[filepath.Join("work", "radar_audit_file_2024-01-31_to_trace.csv")]
	assert.Equal(t, int64(42), req.RequestNumber)
	assert.Equal(t, runDate, req.RunDate)
	require.Len(t, req.Rows, 2)
	// batch, patient_id, nhs, last, first, dob, gender, postcode
	assert.Equal(t, []string{"42", "1", "9434765919", "SMITH", "JOHN", "19800315", "1", "AB1 2CD"}, req.Rows[0])
	assert.Equal(t, []string{"42", "2", "", "DOE", "JANE", "", "2", "XY9 8ZW"}, req.Rows[1])

	assert.Equal(t, []string{filepath.Join("inbox", "radar_audit_file_2024-01-31_to_trace.csv")}, f.exchange.delivered)

	stored, err := f.manifests.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.RequestNumber, stored.RequestNumber)
	require.Len(t, f.metrics.extracts, 1)
}

func TestExtract_SplitsLargeRequests(t *testing.T) {
	var patients []domain.SourceRecord
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		patients = append(patients, auditRecord(id, "", "A", "B", "", "", "", ""))
	}
	cfg := testConfig("work")
	cfg.Formatting.PatientsPerFile = 2
	f := newExtractFixture(cfg, patients)

	m, err := f.svc.Extract(context.Background(), runDate)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"radar_audit_file_2024-01-31_to_trace_1.csv",
		"radar_audit_file_2024-01-31_to_trace_2.csv",
		"radar_audit_file_2024-01-31_to_trace_3.csv",
	}, m.TraceFiles)
	assert.Len(t, f.files.requests[filepath.Join("work", m.TraceFiles[2])].Rows, 1)
}

func TestExtract_KeepsUnparseableDate(t *testing.T) {
	patients := []domain.SourceRecord{auditRecord("1", "", "A", "B", "15/03/1980", "", "", "")}
	f := newExtractFixture(testConfig("work"), patients)

	_, err := f.svc.Extract(context.Background(), runDate)
	require.NoError(t, err)
	req := f.files.requests[filepath.Join("work", "radar_audit_file_2024-01-31_to_trace.csv")]
	assert.Equal(t, "15/03/1980", req.Rows[0][5])
}

func TestExtract_SequenceFailure(t *testing.T) {
	f := newExtractFixture(testConfig("work"), nil)
	f.sequence.err = domain.ErrRegistryUnavailable

	_, err := f.svc.Extract(context.Background(), runDate)
	assert.ErrorIs(t, err, domain.ErrRegistryUnavailable)

	runs, err := f.manifests.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExtract_RejectsTracedTracingColumn(t *testing.T) {
	cfg := testConfig("work")
	cfg.SheetSettings.TracingColumns = []domain.Field{domain.FieldTracedNHSNumber}
	f := newExtractFixture(cfg, []domain.SourceRecord{auditRecord("1", "", "", "", "", "", "", "")})

	_, err := f.svc.Extract(context.Background(), runDate)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSplitRows(t *testing.T) {
	rows := [][]string{{"a"}, {"b"}, {"c"}}
	assert.Len(t, splitRows(rows, 0), 1)
	assert.Len(t, splitRows(rows, 3), 1)
	assert.Len(t, splitRows(rows, 2), 2)
	assert.Len(t, splitRows(nil, 2), 1)
}
