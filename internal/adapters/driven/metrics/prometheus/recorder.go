// Package prometheus publishes per-run metrics as node-exporter textfiles.
package prometheus

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "radar_trace"

// Textfile names inside the collector directory.
const (
	ExtractFile   = "radar_trace_extract.prom"
	ReconcileFile = "radar_trace_reconcile.prom"
)

// Recorder writes one textfile per stage into dir.
type Recorder struct {
	dir string
	now func() time.Time
}

// New creates a Recorder writing into dir.
func New(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

func gauge(reg *prometheus.Registry, name, help string, v float64) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	g.Set(v)
	reg.MustRegister(g)
}

// RecordReconcile writes the outcome of a reconciliation pass.
func (r *Recorder) RecordReconcile(s domain.RunSummary) error {
	reg := prometheus.NewRegistry()
	gauge(reg, "rows_joined", "Traced rows joined to an audit row in the last reconciliation.", float64(s.RowsJoined))
	gauge(reg, "join_failures", "Traced rows that could not be joined in the last reconciliation.", float64(len(s.JoinFailures)))
	gauge(reg, "malformed_dates", "Traced dates that could not be parsed in the last reconciliation.", float64(s.MalformedDates))
	gauge(reg, "corrections", "Date of death corrections issued in the last reconciliation.", float64(s.Corrections))
	gauge(reg, "last_reconcile_timestamp_seconds", "Time the last reconciliation finished.", float64(r.now().Unix()))

	dryRun := 0.0
	if s.DryRun {
		dryRun = 1
	}
	gauge(reg, "last_reconcile_dry_run", "Whether the last reconciliation was a dry run.", dryRun)

	discrepancies := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "discrepancies",
		Help:      "Discrepancies found in the last reconciliation, by category.",
	}, []string{"category"})
	for _, c := range domain.Categories {
		discrepancies.WithLabelValues(string(c)).Set(float64(s.Discrepancies[c]))
	}
	reg.MustRegister(discrepancies)

	return r.write(ReconcileFile, reg)
}

// RecordExtract writes the outcome of an extraction.
func (r *Recorder) RecordExtract(m domain.RunManifest, patients int) error {
	reg := prometheus.NewRegistry()
	gauge(reg, "patients_extracted", "Patients sent for tracing by the last extraction.", float64(patients))
	gauge(reg, "request_number", "Tracing batch number of the last extraction.", float64(m.RequestNumber))
	gauge(reg, "request_files", "Request files written by the last extraction.", float64(len(m.TraceFiles)))
	gauge(reg, "last_extract_timestamp_seconds", "Time the last extraction finished.", float64(r.now().Unix()))
	return r.write(ExtractFile, reg)
}

func (r *Recorder) write(name string, reg *prometheus.Registry) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(filepath.Join(r.dir, name), reg); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
