package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RunStatus tracks how far a tracing run has progressed.
type RunStatus string

// Run statuses.
const (
	// RunStatusExtracted means the audit file was written and sent for tracing.
	RunStatusExtracted RunStatus = "extracted"

	// RunStatusReconciled means the traced file was reconciled and the report saved.
	RunStatusReconciled RunStatus = "reconciled"
)

// RunManifest records one tracing run so stage 2 can find what stage 1 produced.
type RunManifest struct {
	// ID is the unique identifier for the run.
	ID string

	// AuditFile is the audit CSV file name, e.g. radar_audit_file_2024-01-31.csv.
	AuditFile string

	// TraceFiles are the request files handed to the tracing inbox.
	TraceFiles []string

	// RequestNumber is the RR tracing batch number.
	RequestNumber int64

	Status RunStatus

	CreatedAt time.Time

	// ReconciledAt is zero until the run is reconciled.
	ReconciledAt time.Time

	// ReportFile is the workbook produced by reconciliation.
	ReportFile string
}

// AuditBase returns the audit file name without its extension.
func (m RunManifest) AuditBase() string {
	name := m.AuditFile
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
		if name[i] == '/' {
			break
		}
	}
	return name
}

// TracedMatches returns the outbox name fragments of the traced files the run
// expects, one per request part. A single-part run is matched by its audit base.
func (m RunManifest) TracedMatches() []string {
	if len(m.TraceFiles) <= 1 {
		return []string{m.AuditBase()}
	}
	out := make([]string, 0, len(m.TraceFiles))
	for _, f := range m.TraceFiles {
		name := filepath.Base(f)
		out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return out
}

// JoinFailure records a traced row that could not be matched to an audit row.
type JoinFailure struct {
	Line       int
	Identifier string
	Reason     string
}

// Err returns the failure as an error wrapping ErrJoinMiss.
func (f JoinFailure) Err() error {
	return fmt.Errorf("%w: traced line %d (patient %q): %s", ErrJoinMiss, f.Line, f.Identifier, f.Reason)
}

// RunSummary reports what a reconciliation pass did.
type RunSummary struct {
	RunID          string
	RowsJoined     int
	JoinFailures   []JoinFailure
	MalformedDates int
	Discrepancies  map[Category]int
	Corrections    int
	ReportFile     string
	DryRun         bool
}

// TotalDiscrepancies sums discrepancies across categories.
func (s RunSummary) TotalDiscrepancies() int {
	total := 0
	for _, n := range s.Discrepancies {
		total += n
	}
	return total
}

// TraceRequest is the content of a request file sent to the tracing partner.
type TraceRequest struct {
	RequestNumber int64
	RunDate       time.Time

	// Rows are the per-patient request rows, already formatted.
	Rows [][]string
}
