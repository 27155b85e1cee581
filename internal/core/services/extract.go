package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// Ensure ExtractService implements the interface.
var _ driving.Extractor = (*ExtractService)(nil)

// auditDateLayout is how Radar dates appear in the audit file.
const auditDateLayout = "2006-01-02"

// ExtractService runs stage 1.
type ExtractService struct {
	patients  driven.PatientSource
	sequence  driven.RequestSequence
	files     driven.RecordFiles
	exchange  driven.Exchange
	manifests driven.ManifestStore
	metrics   driven.MetricsRecorder
	cfg       domain.Config

	now func() time.Time
}

// NewExtractService creates a new extract service.
// metrics is optional.
func NewExtractService(
	patients driven.PatientSource,
	sequence driven.RequestSequence,
	files driven.RecordFiles,
	exchange driven.Exchange,
	manifests driven.ManifestStore,
	metrics driven.MetricsRecorder,
	cfg domain.Config,
) *ExtractService {
	return &ExtractService{
		patients:  patients,
		sequence:  sequence,
		files:     files,
		exchange:  exchange,
		manifests: manifests,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AuditFileName returns the audit CSV name for a run date.
func AuditFileName(runDate time.Time) string {
	return "radar_audit_file_" + runDate.Format(auditDateLayout) + ".csv"
}

// Extract queries Radar, writes the audit and request files, delivers the request
// to the tracing inbox and records the run.
func (s *ExtractService) Extract(ctx context.Context, runDate time.Time) (*domain.RunManifest, error) {
	logger.Section("Extract")

	manifest := domain.RunManifest{
		ID:        uuid.NewString(),
		AuditFile: AuditFileName(runDate),
		Status:    domain.RunStatusExtracted,
		CreatedAt: s.now().UTC(),
	}
	workDir := s.cfg.Paths.WorkDir

	// 1. Pull the patients to trace
	records, err := s.patients.FetchPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch patients: %w", err)
	}
	logger.Info("Fetched %d patients from Radar", len(records))

	// 2. Audit file
	auditPath := filepath.Join(workDir, manifest.AuditFile)
	if err := s.files.WriteAudit(ctx, auditPath, s.cfg.SheetSettings.AuditCSVHeadings, records); err != nil {
		return nil, fmt.Errorf("write audit file: %w", err)
	}
	logger.Info("Wrote audit file %s", auditPath)

	// 3. Batch number from RR
	requestNumber, err := s.sequence.NextRequestNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next request number: %w", err)
	}
	manifest.RequestNumber = requestNumber
	logger.Info("Tracing request number %d", requestNumber)

	// 4. Request files, split by patients_per_file, delivered to the inbox
	rows, err := s.requestRows(requestNumber, records)
	if err != nil {
		return nil, err
	}
	chunks := splitRows(rows, s.cfg.Formatting.PatientsPerFile)
	for i, chunk := range chunks {
		name := requestFileName(manifest.AuditBase(), i+1, len(chunks))
		local := filepath.Join(workDir, name)
		req := domain.TraceRequest{RequestNumber: requestNumber, RunDate: runDate, Rows: chunk}
		if err := s.files.WriteTraceRequest(ctx, local, req); err != nil {
			return nil, fmt.Errorf("write trace request %s: %w", name, err)
		}
		delivered, err := s.exchange.Deliver(ctx, local)
		if err != nil {
			return nil, fmt.Errorf("deliver trace request %s: %w", name, err)
		}
		logger.Info("Delivered %s (%d patients)", delivered, len(chunk))
		manifest.TraceFiles = append(manifest.TraceFiles, filepath.Base(delivered))
	}

	// 5. Manifest
	if err := s.manifests.Save(ctx, manifest); err != nil {
		return nil, fmt.Errorf("save run manifest: %w", err)
	}
	logger.Event("extract complete",
		"run_id", manifest.ID,
		"audit_file", manifest.AuditFile,
		"request_number", requestNumber,
		"patients", len(records))

	if s.metrics != nil {
		if err := s.metrics.RecordExtract(manifest, len(records)); err != nil {
			logger.Warn("Failed to record extract metrics: %v", err)
		}
	}
	return &manifest, nil
}

// requestRows maps audit records onto the configured tracing columns.
func (s *ExtractService) requestRows(requestNumber int64, records []domain.SourceRecord) ([][]string, error) {
	columns := s.cfg.SheetSettings.TracingColumns
	positions := make([]int, len(columns))
	for i, f := range columns {
		p, ok := domain.DefaultFieldIndex.Position(f)
		if !ok || domain.IsTraced(f) {
			return nil, fmt.Errorf("%w: tracing column %q", domain.ErrInvalidInput, f)
		}
		positions[i] = p
	}

	batch := strconv.FormatInt(requestNumber, 10)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(columns)+1)
		row = append(row, batch)
		for i, f := range columns {
			var v string
			if positions[i] < len(rec.Values) {
				v = rec.Values[positions[i]]
			}
			if f == domain.FieldDateOfBirth || f == domain.FieldDateOfDeath {
				v = s.formatDate(rec.ID(), f, v)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ExtractService) formatDate(patientID string, f domain.Field, v string) string {
	if v == "" {
		return ""
	}
	t, err := time.Parse(auditDateLayout, v)
	if err != nil {
		logger.Warn("Patient %s: %s %q is not a date, sent as is", patientID, f, v)
		return v
	}
	return t.Format(s.cfg.Formatting.DateFormat)
}

// splitRows cuts rows into chunks of at most size rows. size <= 0 means one chunk.
// An empty input still yields one (empty) chunk so a request file is always written.
func splitRows(rows [][]string, size int) [][][]string {
	if size <= 0 || len(rows) <= size {
		return [][][]string{rows}
	}
	var chunks [][][]string
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

// requestFileName names part of total; a single part carries no number.
func requestFileName(auditBase string, part, total int) string {
	if total == 1 {
		return auditBase + "_to_trace.csv"
	}
	return fmt.Sprintf("%s_to_trace_%d.csv", auditBase, part)
}
