package reconcile

import (
	"fmt"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// Join failure reasons.
const (
	ReasonNoAuditRow = "no matching audit row"
	ReasonShortRow   = "traced row too short"
)

// Joiner merges audit rows with traced rows on the patient identifier.
type Joiner struct {
	index    *domain.FieldIndex
	order    []int
	idColumn int
	minWidth int
}

// NewJoiner creates a joiner.
// order picks the traced columns that fill domain.TracedFields, in that order;
// idColumn is the traced column holding the patient identifier.
func NewJoiner(index *domain.FieldIndex, order []int, idColumn int) (*Joiner, error) {
	if len(order) != len(domain.TracedFields) {
		return nil, fmt.Errorf("%w: traced column order has %d entries, want %d",
			domain.ErrInvalidInput, len(order), len(domain.TracedFields))
	}
	minWidth := idColumn + 1
	for _, n := range order {
		if n < 0 {
			return nil, fmt.Errorf("%w: traced column %d", domain.ErrInvalidInput, n)
		}
		if n+1 > minWidth {
			minWidth = n + 1
		}
	}
	return &Joiner{
		index:    index,
		order:    append([]int(nil), order...),
		idColumn: idColumn,
		minWidth: minWidth,
	}, nil
}

// Join produces one unified row per traced data row, in traced order.
// The first and last traced rows are protocol markers and are always dropped.
// Rows that cannot be joined are returned as failures instead of unified rows.
func (j *Joiner) Join(audit []domain.SourceRecord, traced []domain.TracedRecord) ([]*domain.UnifiedRecord, []domain.JoinFailure) {
	byID := make(map[string]domain.SourceRecord, len(audit))
	for _, rec := range audit {
		byID[rec.ID()] = rec
	}

	if len(traced) <= 2 {
		return nil, nil
	}
	data := traced[1 : len(traced)-1]

	rows := make([]*domain.UnifiedRecord, 0, len(data))
	var failures []domain.JoinFailure
	for _, t := range data {
		if len(t.Values) < j.minWidth {
			id := ""
			if len(t.Values) > j.idColumn {
				id = t.Values[j.idColumn]
			}
			failures = append(failures, j.fail(t.Line, id, ReasonShortRow))
			continue
		}

		id := t.Values[j.idColumn]
		src, ok := byID[id]
		if !ok || id == "" {
			failures = append(failures, j.fail(t.Line, id, ReasonNoAuditRow))
			continue
		}

		rows = append(rows, j.combine(src, t))
	}
	return rows, failures
}

func (j *Joiner) combine(src domain.SourceRecord, t domain.TracedRecord) *domain.UnifiedRecord {
	values := make([]string, j.index.Width())
	copy(values[:j.index.AuditWidth()], src.Values)

	row := domain.NewUnifiedRecord(j.index, t.Line, values)
	for i, f := range domain.TracedFields {
		row.Set(f, t.Values[j.order[i]])
	}
	return row
}

func (j *Joiner) fail(line int, id, reason string) domain.JoinFailure {
	f := domain.JoinFailure{Line: line, Identifier: id, Reason: reason}
	logger.Warn("%v", f.Err())
	return f
}
