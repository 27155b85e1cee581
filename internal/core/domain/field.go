package domain

import "fmt"

// Field names a semantic column of a UnifiedRecord.
// Code never addresses a unified row by raw position; it goes through a FieldIndex.
type Field string

// Audit (Radar) fields.
const (
	FieldPatientID   Field = "patient_id"
	FieldNHSNumber   Field = "nhs_number"
	FieldCHINumber   Field = "chi_number"
	FieldHSCNumber   Field = "hsc_number"
	FieldFirstName   Field = "first_name"
	FieldLastName    Field = "last_name"
	FieldDateOfBirth Field = "date_of_birth"
	FieldDateOfDeath Field = "date_of_death"
	FieldGender      Field = "gender"
	FieldPostcode    Field = "postcode"
	FieldUKRDCID     Field = "ukrdc_id"
	FieldSourceGroup Field = "source_group"
)

// Traced (RR) fields.
const (
	FieldTracedNHSNumber       Field = "traced_nhs_number"
	FieldTracedFirstName       Field = "traced_first_name"
	FieldTracedLastName        Field = "traced_last_name"
	FieldTracedOtherGivenNames Field = "traced_other_given_names"
	FieldTracedPreviousName    Field = "traced_previous_last_name"
	FieldTracedDateOfBirth     Field = "traced_date_of_birth"
	FieldTracedDateOfDeath     Field = "traced_date_of_death"
	FieldTracedGender          Field = "traced_gender"
	FieldTracedPostcode        Field = "traced_postcode"
)

// AuditFields is the column order of the audit CSV and of the Radar patient query.
var AuditFields = []Field{
	FieldPatientID,
	FieldNHSNumber,
	FieldCHINumber,
	FieldHSCNumber,
	FieldFirstName,
	FieldLastName,
	FieldDateOfBirth,
	FieldDateOfDeath,
	FieldGender,
	FieldPostcode,
	FieldUKRDCID,
	FieldSourceGroup,
}

// TracedFields is the order traced values take once reordered into a UnifiedRecord.
var TracedFields = []Field{
	FieldTracedNHSNumber,
	FieldTracedFirstName,
	FieldTracedLastName,
	FieldTracedOtherGivenNames,
	FieldTracedPreviousName,
	FieldTracedDateOfBirth,
	FieldTracedDateOfDeath,
	FieldTracedGender,
	FieldTracedPostcode,
}

// GapWidth is the number of blank cells separating audit and traced values.
const GapWidth = 2

// FieldIndex maps each Field to its position in a UnifiedRecord.
type FieldIndex struct {
	positions map[Field]int
	audit     int
	width     int
}

// NewFieldIndex lays out audit fields, a blank gap of GapWidth cells, then traced fields.
func NewFieldIndex(audit, traced []Field) (*FieldIndex, error) {
	idx := &FieldIndex{positions: make(map[Field]int, len(audit)+len(traced))}
	pos := 0
	for _, f := range audit {
		if _, dup := idx.positions[f]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidInput, f)
		}
		idx.positions[f] = pos
		pos++
	}
	idx.audit = pos
	pos += GapWidth
	for _, f := range traced {
		if _, dup := idx.positions[f]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidInput, f)
		}
		idx.positions[f] = pos
		pos++
	}
	idx.width = pos
	return idx, nil
}

// DefaultFieldIndex is the layout of the standard Radar / RR exchange.
var DefaultFieldIndex = mustFieldIndex(AuditFields, TracedFields)

func mustFieldIndex(audit, traced []Field) *FieldIndex {
	idx, err := NewFieldIndex(audit, traced)
	if err != nil {
		panic(err)
	}
	return idx
}

// Position returns the position of f, or false if the layout has no such field.
func (i *FieldIndex) Position(f Field) (int, bool) {
	p, ok := i.positions[f]
	return p, ok
}

// Width is the total number of cells in a unified row.
func (i *FieldIndex) Width() int {
	return i.width
}

// AuditWidth is the number of audit cells, i.e. the position of the first gap cell.
func (i *FieldIndex) AuditWidth() int {
	return i.audit
}

// IsTraced reports whether f is one of TracedFields.
func IsTraced(f Field) bool {
	for _, t := range TracedFields {
		if t == f {
			return true
		}
	}
	return false
}
