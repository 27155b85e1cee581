package services

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

// --- Test doubles shared by the stage tests ---

type fakeSequence struct {
	next int64
	err  error
}

func (f *fakeSequence) NextRequestNumber(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.next++
	return f.next, nil
}

// fakeFiles keeps every written file in memory, keyed by path.
type fakeFiles struct {
	mu       sync.Mutex
	audits   map[string][]domain.SourceRecord
	headings map[string][]string
	requests map[string]domain.TraceRequest
	traced   map[string][]domain.TracedRecord
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		audits:   make(map[string][]domain.SourceRecord),
		headings: make(map[string][]string),
		requests: make(map[string]domain.TraceRequest),
		traced:   make(map[string][]domain.TracedRecord),
	}
}

func (f *fakeFiles) WriteAudit(_ context.Context, path string, headings []string, records []domain.SourceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits[path] = records
	f.headings[path] = headings
	return nil
}

func (f *fakeFiles) ReadAudit(_ context.Context, path string) ([]domain.SourceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.audits[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return recs, nil
}

func (f *fakeFiles) WriteTraceRequest(_ context.Context, path string, req domain.TraceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[path] = req
	return nil
}

func (f *fakeFiles) ReadTraced(_ context.Context, path string) ([]domain.TracedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.traced[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return recs, nil
}

// fakeExchange delivers into a virtual inbox and collects from a virtual outbox.
type fakeExchange struct {
	delivered []string
	outbox    map[string]string
	collected []string

	// arrivals move into outbox when Await is called.
	arrivals map[string]string
	awaited  []string
}

func (f *fakeExchange) Deliver(_ context.Context, localPath string) (string, error) {
	dest := filepath.Join("inbox", filepath.Base(localPath))
	f.delivered = append(f.delivered, dest)
	return dest, nil
}

func (f *fakeExchange) Collect(_ context.Context, match, dir string) (string, error) {
	name, ok := f.outbox[match]
	if !ok {
		return "", domain.ErrTracedFileNotFound
	}
	f.collected = append(f.collected, match)
	return filepath.Join(dir, name), nil
}

func (f *fakeExchange) Await(ctx context.Context, match string) error {
	f.awaited = append(f.awaited, match)
	name, ok := f.arrivals[match]
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	f.outbox[match] = name
	return nil
}

type fakeReports struct {
	written map[string]*domain.Report
	err     error
}

func (f *fakeReports) Write(_ context.Context, path string, _ domain.SheetSettings, report *domain.Report) error {
	if f.err != nil {
		return f.err
	}
	if f.written == nil {
		f.written = make(map[string]*domain.Report)
	}
	f.written[path] = report
	return nil
}

type fakeMetrics struct {
	reconciles []domain.RunSummary
	extracts   []domain.RunManifest
}

func (f *fakeMetrics) RecordReconcile(summary domain.RunSummary) error {
	f.reconciles = append(f.reconciles, summary)
	return nil
}

func (f *fakeMetrics) RecordExtract(manifest domain.RunManifest, _ int) error {
	f.extracts = append(f.extracts, manifest)
	return nil
}

var (
	_ driven.RequestSequence = (*fakeSequence)(nil)
	_ driven.RecordFiles     = (*fakeFiles)(nil)
	_ driven.Exchange        = (*fakeExchange)(nil)
	_ driven.ReportWriter    = (*fakeReports)(nil)
	_ driven.MetricsRecorder = (*fakeMetrics)(nil)
)

// auditRecord builds an audit row in AuditFields order.
func auditRecord(id, nhs, first, last, dob, dod, gender, postcode string) domain.SourceRecord {
	return domain.SourceRecord{Values: []string{
		id, nhs, "", "", first, last, dob, dod, gender, postcode, "", "RADAR",
	}}
}

// tracedRecords wraps data rows, given in the partner's column order, with marker rows.
func tracedRecords(rows ...[]string) []domain.TracedRecord {
	out := []domain.TracedRecord{{Line: 1, Values: []string{"REQUEST", "7", "20240131"}}}
	for i, r := range rows {
		out = append(out, domain.TracedRecord{Line: i + 2, Values: r})
	}
	return append(out, domain.TracedRecord{Line: len(rows) + 2, Values: []string{"END"}})
}
