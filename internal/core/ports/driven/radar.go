package driven

import (
	"context"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// PatientSource lists the patients Radar holds for tracing.
type PatientSource interface {
	// FetchPatients returns audit rows in AuditFields order.
	FetchPatients(ctx context.Context) ([]domain.SourceRecord, error)
}

// CorrectionWriter applies corrective writes to Radar.
type CorrectionWriter interface {
	// SetDateOfDeath records a date of death on a Radar-sourced demographics row.
	SetDateOfDeath(ctx context.Context, patientID, dateOfDeath string) error
}

// CorrectionBatch groups corrective writes so they land together or not at all.
type CorrectionBatch interface {
	CorrectionWriter

	// Commit makes every write in the batch durable.
	Commit() error

	// Rollback discards the batch. It is a no-op after Commit.
	Rollback() error
}

// CorrectionTarget opens correction batches against Radar.
type CorrectionTarget interface {
	// BeginCorrections opens the single write batch of a reconciliation pass.
	BeginCorrections(ctx context.Context) (CorrectionBatch, error)
}

// RadarStore is the Radar database.
type RadarStore interface {
	PatientSource
	CorrectionTarget

	// Close releases the connection.
	Close() error
}
