package reconcile

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// MsgBothNamesDifferent is the only name discrepancy reported.
const MsgBothNamesDifferent = "Both names different"

// comparisonRule compares one Radar field with its traced counterpart.
type comparisonRule struct {
	category domain.Category
	label    string
	source   domain.Field
	traced   domain.Field
	aux      []domain.Field
}

// comparisonRules run in this order for every row.
var comparisonRules = []comparisonRule{
	{
		category: domain.CategoryNHSNumber,
		label:    "NHS number",
		source:   domain.FieldNHSNumber,
		traced:   domain.FieldTracedNHSNumber,
		aux:      []domain.Field{domain.FieldCHINumber, domain.FieldHSCNumber},
	},
	{
		category: domain.CategoryDateOfBirth,
		label:    "Date of birth",
		source:   domain.FieldDateOfBirth,
		traced:   domain.FieldTracedDateOfBirth,
	},
	{
		category: domain.CategoryDateOfDeath,
		label:    "Date of death",
		source:   domain.FieldDateOfDeath,
		traced:   domain.FieldTracedDateOfDeath,
	},
	{
		category: domain.CategoryGender,
		label:    "Gender",
		source:   domain.FieldGender,
		traced:   domain.FieldTracedGender,
	},
	{
		category: domain.CategoryPostcode,
		label:    "Postcode",
		source:   domain.FieldPostcode,
		traced:   domain.FieldTracedPostcode,
	},
}

// nameAux are attached to name discrepancies after the traced first name.
var nameAux = []domain.Field{
	domain.FieldTracedLastName,
	domain.FieldTracedOtherGivenNames,
	domain.FieldTracedPreviousName,
}

// Rules evaluates the discrepancy rules against unified rows.
// A Rules value is not safe for concurrent use.
type Rules struct {
	upper cases.Caser
}

// NewRules creates a rule evaluator.
func NewRules() *Rules {
	return &Rules{upper: cases.Upper(language.Und)}
}

// Evaluate runs every rule against row and returns the discrepancies found, in rule order.
func (r *Rules) Evaluate(row *domain.UnifiedRecord) []domain.Discrepancy {
	var found []domain.Discrepancy
	for _, rule := range comparisonRules {
		if d, ok := rule.evaluate(row); ok {
			found = append(found, d)
		}
	}
	if d, ok := r.names(row); ok {
		found = append(found, d)
	}
	return found
}

func (rule comparisonRule) evaluate(row *domain.UnifiedRecord) (domain.Discrepancy, bool) {
	sourcePresent := row.Present(rule.source)
	tracedPresent := row.Present(rule.traced)

	switch {
	case tracedPresent && !sourcePresent:
		return domain.Discrepancy{
			Category:    rule.category,
			Kind:        domain.KindMissing,
			Message:     rule.label + " missing in Radar",
			PatientID:   row.PatientID(),
			Line:        row.Line,
			TracedField: rule.traced,
			Aux:         rule.aux,
			TracedValue: row.Get(rule.traced),
		}, true
	case tracedPresent && sourcePresent && row.Get(rule.source) != row.Get(rule.traced):
		return domain.Discrepancy{
			Category:    rule.category,
			Kind:        domain.KindDifferent,
			Message:     rule.label + " different",
			PatientID:   row.PatientID(),
			Line:        row.Line,
			SourceField: rule.source,
			TracedField: rule.traced,
			Aux:         rule.aux,
			SourceValue: row.Get(rule.source),
			TracedValue: row.Get(rule.traced),
		}, true
	default:
		return domain.Discrepancy{}, false
	}
}

// names reports rows where the traced first and last names both disagree with Radar.
// A single differing name is deliberately not reported.
func (r *Rules) names(row *domain.UnifiedRecord) (domain.Discrepancy, bool) {
	tracedFirst := row.Get(domain.FieldTracedFirstName)
	tracedLast := row.Get(domain.FieldTracedLastName)
	if tracedFirst == "" || tracedLast == "" {
		return domain.Discrepancy{}, false
	}

	firstDiffers := r.upper.String(row.Get(domain.FieldFirstName)) != r.upper.String(tracedFirst)
	lastDiffers := r.upper.String(row.Get(domain.FieldLastName)) != r.upper.String(tracedLast)
	if !firstDiffers || !lastDiffers {
		return domain.Discrepancy{}, false
	}

	return domain.Discrepancy{
		Category:    domain.CategoryName,
		Kind:        domain.KindBothNames,
		Message:     MsgBothNamesDifferent,
		PatientID:   row.PatientID(),
		Line:        row.Line,
		TracedField: domain.FieldTracedFirstName,
		Aux:         nameAux,
		SourceValue: row.Get(domain.FieldFirstName) + " " + row.Get(domain.FieldLastName),
		TracedValue: tracedFirst + " " + tracedLast,
	}, true
}
