package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
	"github.com/custodia-labs/radar-trace/internal/core/reconcile"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// Ensure ReconcileService implements the interface.
var _ driving.Reconciler = (*ReconcileService)(nil)

// ReconcileService runs stage 2.
type ReconcileService struct {
	radar     driven.CorrectionTarget
	files     driven.RecordFiles
	exchange  driven.Exchange
	reports   driven.ReportWriter
	manifests driven.ManifestStore
	metrics   driven.MetricsRecorder
	engine    *reconcile.Engine
	cfg       domain.Config

	// dryRunBatch supplies the batch used instead of Radar on dry runs.
	dryRunBatch func() driven.CorrectionBatch

	now func() time.Time
}

// NewReconcileService creates a new reconcile service.
// metrics is optional. Dry runs take their batch from dryRunBatch and never
// reach radar.
func NewReconcileService(
	radar driven.CorrectionTarget,
	files driven.RecordFiles,
	exchange driven.Exchange,
	reports driven.ReportWriter,
	manifests driven.ManifestStore,
	metrics driven.MetricsRecorder,
	cfg domain.Config,
	dryRunBatch func() driven.CorrectionBatch,
) (*ReconcileService, error) {
	engine, err := reconcile.NewEngine(reconcile.SettingsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return &ReconcileService{
		radar:       radar,
		files:       files,
		exchange:    exchange,
		reports:     reports,
		manifests:   manifests,
		metrics:     metrics,
		engine:      engine,
		cfg:         cfg,
		dryRunBatch: dryRunBatch,
		now:         time.Now,
	}, nil
}

// Reconcile joins the traced file of a run with its audit file, writes the
// report and commits the corrective writes.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *ReconcileService) Reconcile(ctx context.Context, opts driving.ReconcileOptions) (summary *domain.RunSummary, err error) {
	// 1. Find the run
	manifest, err := s.findRun(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}
	logger.Info("Reconciling run %s (%s)", manifest.ID, manifest.AuditFile)
	workDir := s.cfg.Paths.WorkDir

	// 2. Locate the traced files, one per request part
	tracedPaths, err := s.tracedPaths(ctx, *manifest, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Traced files %v", tracedPaths)

	// 3. Load both sides
	audit, err := s.files.ReadAudit(ctx, filepath.Join(workDir, manifest.AuditFile))
	if err != nil {
		return nil, fmt.Errorf("read audit file: %w", err)
	}
	traced, err := s.readTraced(ctx, tracedPaths)
	if err != nil {
		return nil, err
	}

	// 4. Open the correction batch
	batch, err := s.beginBatch(ctx, opts.DryRun)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := batch.Rollback(); rbErr != nil {
			logger.Warn("Rollback failed: %v", rbErr)
		}
	}()

	// 5. Reconcile
	res, err := s.engine.Run(ctx, audit, traced, batch)
	if err != nil {
		return nil, fmt.Errorf("reconcile run %s: %w", manifest.ID, err)
	}

	// 6. Report, then commit
	reportPath := filepath.Join(workDir, manifest.AuditBase()+".xlsx")
	if err := s.reports.Write(ctx, reportPath, s.cfg.SheetSettings, res.Report); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	logger.Info("Saved report %s", reportPath)

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("commit corrections: %w", err)
	}
	committed = true

	summary = &domain.RunSummary{
		RunID:          manifest.ID,
		RowsJoined:     len(res.Rows),
		JoinFailures:   res.JoinFailures,
		MalformedDates: res.MalformedDates,
		Discrepancies:  res.Counts(),
		Corrections:    res.Corrections,
		ReportFile:     reportPath,
		DryRun:         opts.DryRun,
	}

	// 7. Mark the run reconciled
	if !opts.DryRun {
		manifest.Status = domain.RunStatusReconciled
		manifest.ReconciledAt = s.now().UTC()
		manifest.ReportFile = filepath.Base(reportPath)
		if err := s.manifests.Save(ctx, *manifest); err != nil {
			return summary, fmt.Errorf("save run manifest: %w", err)
		}
	}

	logger.Event("reconcile complete",
		"run_id", summary.RunID,
		"rows_joined", summary.RowsJoined,
		"join_failures", len(summary.JoinFailures),
		"malformed_dates", summary.MalformedDates,
		"discrepancies", summary.TotalDiscrepancies(),
		"corrections", summary.Corrections,
		"dry_run", summary.DryRun)

	if s.metrics != nil {
		if err := s.metrics.RecordReconcile(*summary); err != nil {
			logger.Warn("Failed to record reconcile metrics: %v", err)
		}
	}
	return summary, nil
}

// tracedPaths returns the local traced file of every request part of the run.
// A missing part fails the whole run.
func (s *ReconcileService) tracedPaths(ctx context.Context, manifest domain.RunManifest, opts driving.ReconcileOptions) ([]string, error) {
	matches := manifest.TracedMatches()
	if opts.TracedFile != "" {
		if len(matches) > 1 {
			return nil, fmt.Errorf("%w: run %s has %d request parts, a single traced file cannot cover them",
				domain.ErrInvalidInput, manifest.ID, len(matches))
		}
		return []string{opts.TracedFile}, nil
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		path, err := s.collect(ctx, match, s.cfg.Paths.WorkDir, opts.Wait)
		if err != nil {
			return nil, fmt.Errorf("collect traced file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// readTraced loads the traced parts as one file. Each part's request marker
// and trailer are dropped; the first part's marker and a fresh trailer wrap
// the combined rows.
func (s *ReconcileService) readTraced(ctx context.Context, paths []string) ([]domain.TracedRecord, error) {
	if len(paths) == 1 {
		traced, err := s.files.ReadTraced(ctx, paths[0])
		if err != nil {
			return nil, fmt.Errorf("read traced file: %w", err)
		}
		return traced, nil
	}

	marker := domain.TracedRecord{Values: []string{"REQUEST"}}
	var rows []domain.TracedRecord
	for i, path := range paths {
		part, err := s.files.ReadTraced(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("read traced file %s: %w", path, err)
		}
		if len(part) < 2 {
			logger.Warn("Traced file %s has no patient rows", path)
			continue
		}
		if i == 0 {
			marker = part[0]
		}
		rows = append(rows, part[1:len(part)-1]...)
	}

	combined := make([]domain.TracedRecord, 0, len(rows)+2)
	combined = append(combined, marker)
	combined = append(combined, rows...)
	return append(combined, domain.TracedRecord{Values: []string{"END"}}), nil
}

// collect fetches the traced file, waiting up to wait for it to arrive.
func (s *ReconcileService) collect(ctx context.Context, match, dir string, wait time.Duration) (string, error) {
	path, err := s.exchange.Collect(ctx, match, dir)
	if wait <= 0 || !errors.Is(err, domain.ErrTracedFileNotFound) {
		return path, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := s.exchange.Await(waitCtx, match); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: nothing matching %q after %s", domain.ErrTracedFileNotFound, match, wait)
		}
		return "", err
	}
	return s.exchange.Collect(ctx, match, dir)
}

func (s *ReconcileService) findRun(ctx context.Context, id string) (*domain.RunManifest, error) {
	if id == "" {
		m, err := s.manifests.Latest(ctx, domain.RunStatusExtracted)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoPendingRun
		}
		if err != nil {
			return nil, fmt.Errorf("find latest run: %w", err)
		}
		return m, nil
	}

	m, err := s.manifests.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if m.Status == domain.RunStatusReconciled {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrAlreadyReconciled)
	}
	return m, nil
}

func (s *ReconcileService) beginBatch(ctx context.Context, dryRun bool) (driven.CorrectionBatch, error) {
	if dryRun {
		if s.dryRunBatch == nil {
			return nil, fmt.Errorf("%w: dry run not configured", domain.ErrInvalidInput)
		}
		logger.Info("Dry run: corrections will not be written to Radar")
		return s.dryRunBatch(), nil
	}
	batch, err := s.radar.BeginCorrections(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin corrections: %w", err)
	}
	return batch, nil
}
