package domain

// SourceRecord is one audit row extracted from Radar.
// Values follow AuditFields order; the first value is the patient identifier.
type SourceRecord struct {
	Values []string
}

// ID returns the patient identifier, or "" for an empty row.
func (r SourceRecord) ID() string {
	if len(r.Values) == 0 {
		return ""
	}
	return r.Values[0]
}

// TracedRecord is one raw row of the traced file, in the tracing partner's column order.
type TracedRecord struct {
	// Line is the 1-based line number in the traced file.
	Line int

	// Values are the raw cells.
	Values []string
}

// UnifiedRecord is an audit row joined with its traced row.
// It is built once by the joiner and only mutated by in-place date repair.
type UnifiedRecord struct {
	// Line is the traced file line the row came from.
	Line int

	index     *FieldIndex
	values    []string
	malformed map[Field]bool
}

// NewUnifiedRecord wraps values laid out according to index.
// values shorter than the layout are padded with blanks.
func NewUnifiedRecord(index *FieldIndex, line int, values []string) *UnifiedRecord {
	if len(values) < index.Width() {
		padded := make([]string, index.Width())
		copy(padded, values)
		values = padded
	}
	return &UnifiedRecord{Line: line, index: index, values: values}
}

// Index returns the layout the row was built against.
func (r *UnifiedRecord) Index() *FieldIndex {
	return r.index
}

// Get returns the value of f, or "" if the layout has no such field.
func (r *UnifiedRecord) Get(f Field) string {
	p, ok := r.index.Position(f)
	if !ok || p >= len(r.values) {
		return ""
	}
	return r.values[p]
}

// Set replaces the value of f. Unknown fields are ignored.
func (r *UnifiedRecord) Set(f Field, v string) {
	if p, ok := r.index.Position(f); ok && p < len(r.values) {
		r.values[p] = v
	}
}

// Present reports whether f holds a usable value.
// Empty values and values flagged malformed are absent.
func (r *UnifiedRecord) Present(f Field) bool {
	return r.Get(f) != "" && !r.malformed[f]
}

// MarkMalformed flags f so rules treat it as absent while the raw value stays visible.
func (r *UnifiedRecord) MarkMalformed(f Field) {
	if r.malformed == nil {
		r.malformed = make(map[Field]bool)
	}
	r.malformed[f] = true
}

// Malformed reports whether f was flagged by MarkMalformed.
func (r *UnifiedRecord) Malformed(f Field) bool {
	return r.malformed[f]
}

// PatientID is shorthand for Get(FieldPatientID).
func (r *UnifiedRecord) PatientID() string {
	return r.Get(FieldPatientID)
}

// Cells renders the row for the TRACED DATA sheet; gap cells are nil.
func (r *UnifiedRecord) Cells() ReportRow {
	cells := make(ReportRow, len(r.values))
	gapStart := r.index.AuditWidth()
	for i, v := range r.values {
		if i >= gapStart && i < gapStart+GapWidth {
			continue
		}
		cells[i] = v
	}
	return cells
}
