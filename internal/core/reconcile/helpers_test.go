package reconcile

import (
	"strings"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// patient holds the demographic values used to build audit and traced rows.
type patient struct {
	id, nhs, chi, hsc          string
	first, last, other, prev   string
	dob, dod, gender, postcode string
}

func auditRow(p patient) domain.SourceRecord {
	return domain.SourceRecord{Values: []string{
		p.id, p.nhs, p.chi, p.hsc, p.first, p.last,
		p.dob, p.dod, p.gender, p.postcode, "", "RADAR",
	}}
}

// tracedRow lays p out in the partner's column order:
// batch, id, nhs, last, first, other, previous, dob, dod, gender, postcode.
func tracedRow(line int, p patient) domain.TracedRecord {
	return domain.TracedRecord{Line: line, Values: []string{
		"1001", p.id, p.nhs, p.last, p.first, p.other, p.prev,
		p.dob, p.dod, p.gender, p.postcode,
	}}
}

// tracedFile wraps rows with the header and trailer marker rows.
func tracedFile(ps ...patient) []domain.TracedRecord {
	rows := []domain.TracedRecord{{Line: 1, Values: []string{"REQUEST", "1001", "20240131"}}}
	for i, p := range ps {
		rows = append(rows, tracedRow(i+2, p))
	}
	return append(rows, domain.TracedRecord{Line: len(ps) + 2, Values: []string{"END", "1"}})
}

func defaultSettings() Settings {
	return SettingsFromConfig(domain.DefaultConfig())
}

func newTestEngine() *Engine {
	e, err := NewEngine(defaultSettings())
	if err != nil {
		panic(err)
	}
	return e
}

func unified(audit, traced patient) *domain.UnifiedRecord {
	cfg := domain.DefaultConfig().SheetSettings
	j, err := NewJoiner(domain.DefaultFieldIndex, cfg.OrderForTracing, cfg.TracedIDColumn)
	if err != nil {
		panic(err)
	}
	traced.id = audit.id
	rows, _ := j.Join([]domain.SourceRecord{auditRow(audit)}, tracedFile(traced))
	return rows[0]
}

func john() patient {
	return patient{
		id: "1", nhs: "9434765919", chi: "", hsc: "",
		first: "JOHN", last: "SMITH",
		dob: "1980-03-15", gender: "1", postcode: "AB1 2CD",
	}
}

// compactDates rewrites p's dates the way the partner sends them.
func compactDates(p patient) patient {
	p.dob = strings.ReplaceAll(p.dob, "-", "")
	p.dod = strings.ReplaceAll(p.dod, "-", "")
	return p
}
