package domain

// Category groups discrepancies by the report sheet they land on.
type Category string

// Discrepancy categories.
const (
	CategoryNHSNumber   Category = "nhs_number"
	CategoryDateOfBirth Category = "date_of_birth"
	CategoryDateOfDeath Category = "date_of_death"
	CategoryGender      Category = "gender"
	CategoryPostcode    Category = "postcode"
	CategoryName        Category = "name"
)

// Categories lists every category in report sheet order.
var Categories = []Category{
	CategoryNHSNumber,
	CategoryDateOfBirth,
	CategoryDateOfDeath,
	CategoryGender,
	CategoryPostcode,
	CategoryName,
}

// SheetTracedData is the sheet holding the unified rows.
const SheetTracedData = "TRACED DATA"

// Sheet returns the report sheet name for the category.
func (c Category) Sheet() string {
	switch c {
	case CategoryNHSNumber:
		return "NHS NUM DIFF"
	case CategoryDateOfBirth:
		return "DOB DIFF"
	case CategoryDateOfDeath:
		return "DOD DIFF"
	case CategoryGender:
		return "SEX DIFF"
	case CategoryPostcode:
		return "POSTCODE DIFF"
	case CategoryName:
		return "NAME DIFF"
	default:
		return ""
	}
}

// SheetKey returns the config key holding the sheet's header row ("NHS NUM DIFF" -> "nhs_num_diff").
func (c Category) SheetKey() string {
	name := []byte(c.Sheet())
	for i, b := range name {
		switch {
		case b == ' ':
			name[i] = '_'
		case b >= 'A' && b <= 'Z':
			name[i] = b + ('a' - 'A')
		}
	}
	return string(name)
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	return c.Sheet() != ""
}

// Kind describes what sort of mismatch a discrepancy records.
type Kind string

// Discrepancy kinds.
const (
	// KindMissing means the traced value exists and the Radar value does not.
	KindMissing Kind = "missing"

	// KindDifferent means both values exist and disagree.
	KindDifferent Kind = "different"

	// KindAutoFilled means a traced date was completed with a default month or day.
	KindAutoFilled Kind = "auto_filled"

	// KindMalformed means a traced date could not be read.
	KindMalformed Kind = "malformed"

	// KindBothNames means first and last name both disagree.
	KindBothNames Kind = "both_names"
)

// Discrepancy is one detected mismatch for one patient and one category.
type Discrepancy struct {
	Category Category
	Kind     Kind
	Message  string

	// PatientID identifies the row the discrepancy was raised against.
	PatientID string

	// Line is the traced file line of that row.
	Line int

	// SourceField is the Radar field compared, empty when the value slot is blank.
	SourceField Field

	// TracedField is the traced field compared, empty when none is attached.
	TracedField Field

	// Aux are secondary fields attached to the report line, such as CHI and HSC numbers.
	Aux []Field

	SourceValue string
	TracedValue string
}

// ReportRow is one rendered report row. nil cells are blank placeholders.
type ReportRow []any

// Report is the full output of a reconciliation pass, ready to be written out.
type Report struct {
	// Traced holds one row per unified record, in traced file order.
	Traced []ReportRow

	// Sheets holds the rendered discrepancy rows of each category, in emission order.
	Sheets map[Category][]ReportRow
}

// NewReport returns an empty report with a sheet per category.
func NewReport() *Report {
	sheets := make(map[Category][]ReportRow, len(Categories))
	for _, c := range Categories {
		sheets[c] = nil
	}
	return &Report{Sheets: sheets}
}
