// Package csvfile reads and writes the CSV files exchanged between the two
// stages and the tracing partner.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

var _ driven.RecordFiles = (*Files)(nil)

// Marker row tags of a trace request file.
const (
	MarkerRequest = "REQUEST"
	MarkerEnd     = "END"
)

// requestDateLayout is the run date layout in the request marker row.
const requestDateLayout = "20060102"

const utf8BOM = "\ufeff"

// Files implements driven.RecordFiles on the local filesystem.
type Files struct{}

// New creates a Files.
func New() *Files {
	return &Files{}
}

// WriteAudit writes the audit CSV with a header row.
func (f *Files) WriteAudit(ctx context.Context, path string, headings []string, records []domain.SourceRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, headings)
	for _, rec := range records {
		rows = append(rows, rec.Values)
	}
	return writeAll(ctx, path, rows)
}

// ReadAudit reads the audit CSV, skipping its header row.
func (f *Files) ReadAudit(ctx context.Context, path string) ([]domain.SourceRecord, error) {
	var records []domain.SourceRecord
	first := true
	err := readAll(ctx, path, func(_ int, row []string) {
		if first {
			first = false
			return
		}
		records = append(records, domain.SourceRecord{Values: row})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WriteTraceRequest writes the request marker row, the patient rows and the trailer row.
func (f *Files) WriteTraceRequest(ctx context.Context, path string, req domain.TraceRequest) error {
	rows := make([][]string, 0, len(req.Rows)+2)
	rows = append(rows, []string{
		MarkerRequest,
		strconv.FormatInt(req.RequestNumber, 10),
		req.RunDate.Format(requestDateLayout),
	})
	rows = append(rows, req.Rows...)
	rows = append(rows, []string{MarkerEnd, strconv.Itoa(len(req.Rows))})
	return writeAll(ctx, path, rows)
}

// ReadTraced reads every row of a traced file, marker rows included.
// Line numbers are those of the row's first line in the file.
func (f *Files) ReadTraced(ctx context.Context, path string) ([]domain.TracedRecord, error) {
	var records []domain.TracedRecord
	err := readAll(ctx, path, func(line int, row []string) {
		records = append(records, domain.TracedRecord{Line: line, Values: row})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func writeAll(ctx context.Context, path string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func readAll(ctx context.Context, path string, fn func(line int, row []string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if first && len(row) > 0 {
			row[0] = strings.TrimPrefix(row[0], utf8BOM)
			first = false
		}
		line, _ := r.FieldPos(0)
		fn(line, row)
	}
}
