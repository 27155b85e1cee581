package driven

import (
	"context"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// RecordFiles reads and writes the files exchanged between the two stages and RR.
type RecordFiles interface {
	// WriteAudit writes the audit CSV with a header row.
	WriteAudit(ctx context.Context, path string, headings []string, records []domain.SourceRecord) error

	// ReadAudit reads the audit CSV, skipping its header row.
	ReadAudit(ctx context.Context, path string) ([]domain.SourceRecord, error)

	// WriteTraceRequest writes a request file including its marker and trailer rows.
	WriteTraceRequest(ctx context.Context, path string, request domain.TraceRequest) error

	// ReadTraced reads every row of a traced file, marker rows included.
	ReadTraced(ctx context.Context, path string) ([]domain.TracedRecord, error)
}

// Exchange hands files to and collects files from the tracing partner.
type Exchange interface {
	// Deliver moves a local request file into the tracing inbox and returns its new location.
	Deliver(ctx context.Context, localPath string) (string, error)

	// Collect finds the outbox file whose name contains match, copies it into dir
	// and returns the local copy's path. Returns domain.ErrTracedFileNotFound if none matches.
	Collect(ctx context.Context, match, dir string) (string, error)

	// Await blocks until an outbox file whose name contains match is complete, or ctx is done.
	Await(ctx context.Context, match string) error
}

// ReportWriter persists a reconciliation report.
type ReportWriter interface {
	// Write saves the report at path using the configured sheet headers.
	Write(ctx context.Context, path string, sheets domain.SheetSettings, report *domain.Report) error
}

// MetricsRecorder publishes per-run metrics. Implementations may be no-ops.
type MetricsRecorder interface {
	// RecordReconcile publishes the outcome of a reconciliation pass.
	RecordReconcile(summary domain.RunSummary) error

	// RecordExtract publishes the outcome of an extraction.
	RecordExtract(manifest domain.RunManifest, patients int) error
}
