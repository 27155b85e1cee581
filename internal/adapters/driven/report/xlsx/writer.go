// Package xlsx writes reconciliation reports as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

var _ driven.ReportWriter = (*Writer)(nil)

const (
	defaultSheet = "Sheet1"

	// emptyColumnWidth is the content width assumed for columns with no text.
	emptyColumnWidth = 5
	columnPadding    = 2
)

// Writer renders a domain.Report into a workbook: TRACED DATA first, then
// one sheet per discrepancy category. Every cell is centred and each column
// is sized to its longest value.
type Writer struct{}

// New creates a Writer.
func New() *Writer {
	return &Writer{}
}

// Write saves report at path.
func (w *Writer) Write(ctx context.Context, path string, sheets domain.SheetSettings, report *domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetName(defaultSheet, domain.SheetTracedData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, domain.SheetTracedData, sheets.TracedDataHeaders(), report.Traced, style); err != nil {
		return err
	}

	for _, c := range domain.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := f.NewSheet(c.Sheet()); err != nil {
			return fmt.Errorf("create sheet %s: %w", c.Sheet(), err)
		}
		headers := make(domain.ReportRow, 0, len(sheets.Headers(c)))
		for _, h := range sheets.Headers(c) {
			headers = append(headers, h)
		}
		if err := writeSheet(f, c.Sheet(), headers, report.Sheets[c], style); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers domain.ReportRow, rows []domain.ReportRow, style int) error {
	widths := make(map[int]int)
	maxCols := 0

	all := append([]domain.ReportRow{headers}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := []any(row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
		for col, v := range row {
			if n := textWidth(v); n > widths[col] {
				widths[col] = n
			}
		}
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(maxCols, len(all))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s: %w", sheet, err)
	}

	for col := 0; col < maxCols; col++ {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := widths[col]
		if width == 0 {
			width = emptyColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, float64(width+columnPadding)); err != nil {
			return fmt.Errorf("size %s column %s: %w", sheet, name, err)
		}
	}
	return nil
}

func textWidth(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(x)
	default:
		return utf8.RuneCountInString(fmt.Sprint(x))
	}
}
