package reconcile

import (
	"context"
	"errors"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// repairedDates are the traced dates normalised in place, with the category
// their discrepancies are filed under.
var repairedDates = []struct {
	field    domain.Field
	category domain.Category
	label    string
}{
	{domain.FieldTracedDateOfBirth, domain.CategoryDateOfBirth, "Date of birth"},
	{domain.FieldTracedDateOfDeath, domain.CategoryDateOfDeath, "Date of death"},
}

// Settings configures an Engine.
type Settings struct {
	Index           *domain.FieldIndex
	OrderForTracing []int
	TracedIDColumn  int
	BasicLine       []domain.Field
}

// SettingsFromConfig builds engine settings for the default field layout.
func SettingsFromConfig(cfg domain.Config) Settings {
	return Settings{
		Index:           domain.DefaultFieldIndex,
		OrderForTracing: cfg.SheetSettings.OrderForTracing,
		TracedIDColumn:  cfg.SheetSettings.TracedIDColumn,
		BasicLine:       cfg.SheetSettings.BasicLine,
	}
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Rows           []*domain.UnifiedRecord
	Discrepancies  []domain.Discrepancy
	JoinFailures   []domain.JoinFailure
	MalformedDates int
	Corrections    int
	Report         *domain.Report
}

// Counts returns the number of discrepancies per category.
func (r *Result) Counts() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}
	for _, d := range r.Discrepancies {
		counts[d.Category]++
	}
	return counts
}

// Engine runs the join, date repair, rules, line building and correction trigger
// over one traced file. It is sequential and keeps no state between runs.
type Engine struct {
	joiner *Joiner
	lines  *LineBuilder
}

// NewEngine creates an engine.
func NewEngine(s Settings) (*Engine, error) {
	if s.Index == nil {
		s.Index = domain.DefaultFieldIndex
	}
	joiner, err := NewJoiner(s.Index, s.OrderForTracing, s.TracedIDColumn)
	if err != nil {
		return nil, err
	}
	lines, err := NewLineBuilder(s.Index, s.BasicLine)
	if err != nil {
		return nil, err
	}
	return &Engine{joiner: joiner, lines: lines}, nil
}

// Run reconciles traced against audit. Discrepancies keep traced row order within
// each category; date repair discrepancies precede rule discrepancies.
// Corrective writes go to w; a write failure aborts the pass.
func (e *Engine) Run(
	ctx context.Context,
	audit []domain.SourceRecord,
	traced []domain.TracedRecord,
	w driven.CorrectionWriter,
) (*Result, error) {
	logger.Section("Reconcile")

	rows, failures := e.joiner.Join(audit, traced)
	res := &Result{
		Rows:         rows,
		JoinFailures: failures,
		Report:       domain.NewReport(),
	}
	logger.Info("Joined %d traced rows (%d join failures)", len(rows), len(failures))

	trigger := NewCorrectionTrigger(w)
	emit := func(row *domain.UnifiedRecord, d domain.Discrepancy) error {
		res.Discrepancies = append(res.Discrepancies, d)
		res.Report.Sheets[d.Category] = append(res.Report.Sheets[d.Category], e.lines.Build(row, d))
		return trigger.Observe(ctx, d)
	}

	for _, row := range rows {
		for _, d := range e.repairDates(row) {
			if d.Kind == domain.KindMalformed {
				res.MalformedDates++
			}
			if err := emit(row, d); err != nil {
				return res, err
			}
		}
	}

	rules := NewRules()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for _, d := range rules.Evaluate(row) {
			if err := emit(row, d); err != nil {
				return res, err
			}
		}
		res.Report.Traced = append(res.Report.Traced, row.Cells())
	}

	res.Corrections = trigger.Issued()
	return res, nil
}

// repairDates normalises the traced dates of row in place.
func (e *Engine) repairDates(row *domain.UnifiedRecord) []domain.Discrepancy {
	var found []domain.Discrepancy
	for _, rd := range repairedDates {
		raw := row.Get(rd.field)
		res, err := NormalizeDate(raw)
		if errors.Is(err, domain.ErrMalformedDate) {
			logger.Warn("Patient %s: %s %v", row.PatientID(), rd.field, err)
			row.MarkMalformed(rd.field)
			found = append(found, domain.Discrepancy{
				Category:    rd.category,
				Kind:        domain.KindMalformed,
				Message:     rd.label + " could not be parsed",
				PatientID:   row.PatientID(),
				Line:        row.Line,
				TracedField: rd.field,
				TracedValue: raw,
			})
			continue
		}

		row.Set(rd.field, res.Value)
		if res.AutoFilled {
			found = append(found, domain.Discrepancy{
				Category:    rd.category,
				Kind:        domain.KindAutoFilled,
				Message:     res.Message,
				PatientID:   row.PatientID(),
				Line:        row.Line,
				TracedField: rd.field,
				TracedValue: res.Value,
			})
		}
	}
	return found
}
