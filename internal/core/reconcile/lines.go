package reconcile

import (
	"fmt"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// valueSlot is where the Radar value sits in shapes that carry one.
const valueSlot = 5

// auxSlots pins secondary identifiers to fixed cells; other aux fields are appended.
var auxSlots = map[domain.Field]int{
	domain.FieldCHINumber: 5,
	domain.FieldHSCNumber: 6,
}

// Shape describes how a category's report row is laid out around the base fields.
type Shape struct {
	// ValueSlot inserts the Radar value (or a blank) at position 5.
	ValueSlot bool
}

// shapes is keyed by category. NHS number and name rows omit the value slot.
var shapes = map[domain.Category]Shape{
	domain.CategoryNHSNumber:   {ValueSlot: false},
	domain.CategoryDateOfBirth: {ValueSlot: true},
	domain.CategoryDateOfDeath: {ValueSlot: true},
	domain.CategoryGender:      {ValueSlot: true},
	domain.CategoryPostcode:    {ValueSlot: true},
	domain.CategoryName:        {ValueSlot: false},
}

// LineBuilder renders discrepancies into report rows.
type LineBuilder struct {
	base []domain.Field
}

// NewLineBuilder creates a builder whose rows start with the base fields.
func NewLineBuilder(index *domain.FieldIndex, base []domain.Field) (*LineBuilder, error) {
	for _, f := range base {
		if _, ok := index.Position(f); !ok {
			return nil, fmt.Errorf("%w: base line field %q", domain.ErrInvalidInput, f)
		}
	}
	return &LineBuilder{base: append([]domain.Field(nil), base...)}, nil
}

// Build renders d against row:
// base fields, the value slot if the category has one, the traced value,
// aux fields at their pinned cell or appended, then the message.
func (b *LineBuilder) Build(row *domain.UnifiedRecord, d domain.Discrepancy) domain.ReportRow {
	cells := make(domain.ReportRow, 0, len(b.base)+len(d.Aux)+3)
	for _, f := range b.base {
		cells = append(cells, row.Get(f))
	}

	if shapes[d.Category].ValueSlot {
		var value any
		if d.SourceField != "" {
			value = row.Get(d.SourceField)
		}
		cells = insertAt(cells, valueSlot, value)
	}

	if d.TracedField != "" {
		cells = append(cells, row.Get(d.TracedField))
	}

	for _, f := range d.Aux {
		if slot, ok := auxSlots[f]; ok {
			cells = insertAt(cells, slot, row.Get(f))
		} else {
			cells = append(cells, row.Get(f))
		}
	}

	return append(cells, d.Message)
}

// insertAt inserts v before position i, appending when i is past the end.
func insertAt(cells domain.ReportRow, i int, v any) domain.ReportRow {
	if i >= len(cells) {
		return append(cells, v)
	}
	cells = append(cells, nil)
	copy(cells[i+1:], cells[i:])
	cells[i] = v
	return cells
}
