package reconcile

import (
	"context"
	"fmt"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// CorrectionTrigger writes traced dates of death back to Radar when Radar has none.
type CorrectionTrigger struct {
	writer driven.CorrectionWriter
	issued int
}

// NewCorrectionTrigger creates a trigger writing through w.
func NewCorrectionTrigger(w driven.CorrectionWriter) *CorrectionTrigger {
	return &CorrectionTrigger{writer: w}
}

// Observe issues one corrective write for a "date of death missing in Radar" discrepancy
// and ignores everything else. Writes are not read back.
func (t *CorrectionTrigger) Observe(ctx context.Context, d domain.Discrepancy) error {
	if d.Category != domain.CategoryDateOfDeath || d.Kind != domain.KindMissing {
		return nil
	}
	if err := t.writer.SetDateOfDeath(ctx, d.PatientID, d.TracedValue); err != nil {
		return fmt.Errorf("set date of death for patient %s: %w", d.PatientID, err)
	}
	logger.Debug("Queued date of death %s for patient %s", d.TracedValue, d.PatientID)
	t.issued++
	return nil
}

// Issued returns the number of corrective writes made.
func (t *CorrectionTrigger) Issued() int {
	return t.issued
}
