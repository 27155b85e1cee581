package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

// Ensure the Radar doubles implement the interfaces.
var (
	_ driven.RadarStore      = (*RadarStore)(nil)
	_ driven.CorrectionBatch = (*CorrectionBatch)(nil)
)

// ErrBatchClosed is returned when writing to a committed or rolled back batch.
var ErrBatchClosed = errors.New("correction batch closed")

// Correction is one date of death written through a CorrectionBatch.
type Correction struct {
	PatientID   string
	DateOfDeath string
}

// CorrectionBatch is an in-memory driven.CorrectionBatch.
// It backs dry runs, where corrections are reported but never reach Radar.
type CorrectionBatch struct {
	mu         sync.Mutex
	writes     []Correction
	committed  bool
	rolledBack bool
	// FailOn makes SetDateOfDeath fail for the given patient.
	FailOn string
}

// NewCorrectionBatch creates an open batch.
func NewCorrectionBatch() *CorrectionBatch {
	return &CorrectionBatch{}
}

// SetDateOfDeath records the write.
func (b *CorrectionBatch) SetDateOfDeath(_ context.Context, patientID, dateOfDeath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committed || b.rolledBack {
		return ErrBatchClosed
	}
	if b.FailOn != "" && b.FailOn == patientID {
		return errors.New("write rejected")
	}
	b.writes = append(b.writes, Correction{PatientID: patientID, DateOfDeath: dateOfDeath})
	return nil
}

// Commit marks the batch committed.
func (b *CorrectionBatch) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rolledBack {
		return ErrBatchClosed
	}
	b.committed = true
	return nil
}

// Rollback discards the batch unless it was committed.
func (b *CorrectionBatch) Rollback() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.committed {
		b.rolledBack = true
	}
	return nil
}

// Writes returns the writes made so far.
func (b *CorrectionBatch) Writes() []Correction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Correction(nil), b.writes...)
}

// Committed reports whether Commit was called.
func (b *CorrectionBatch) Committed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// RolledBack reports whether the batch was discarded.
func (b *CorrectionBatch) RolledBack() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rolledBack
}

// RadarStore is an in-memory driven.RadarStore holding a fixed patient list.
type RadarStore struct {
	mu       sync.Mutex
	patients []domain.SourceRecord
	batches  []*CorrectionBatch
	closed   bool
}

// NewRadarStore creates a store returning patients.
func NewRadarStore(patients []domain.SourceRecord) *RadarStore {
	return &RadarStore{patients: patients}
}

// FetchPatients returns a copy of the patient list.
func (s *RadarStore) FetchPatients(_ context.Context) ([]domain.SourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SourceRecord, len(s.patients))
	for i, p := range s.patients {
		out[i] = domain.SourceRecord{Values: append([]string(nil), p.Values...)}
	}
	return out, nil
}

// BeginCorrections opens a new in-memory batch.
func (s *RadarStore) BeginCorrections(_ context.Context) (driven.CorrectionBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := NewCorrectionBatch()
	s.batches = append(s.batches, b)
	return b, nil
}

// Batches returns every batch opened so far.
func (s *RadarStore) Batches() []*CorrectionBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CorrectionBatch(nil), s.batches...)
}

// Close marks the store closed.
func (s *RadarStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *RadarStore) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
