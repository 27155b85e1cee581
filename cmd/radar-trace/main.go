// Command radar-trace runs the Radar / RR patient tracing exchange.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/radar-trace/internal/adapters/driven/config/file"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/csvfile"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/exchange/filesystem"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/radar/postgres"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/registry/mssql"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/report/xlsx"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/radar-trace/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/radar-trace/internal/adapters/driving/cli"
	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
	"github.com/custodia-labs/radar-trace/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	a := &app{}
	if err := cli.Execute(a, version); err != nil {
		os.Exit(1)
	}
}

// app opens adapters on demand and closes them when the command returns.
type app struct {
	store    *sqlite.Store
	radar    *postgres.Store
	sequence *mssql.Sequence
}

var _ cli.Builder = (*app)(nil)

func (a *app) LoadConfig(path string) (domain.Config, error) {
	return file.LoadConfig(path)
}

func (a *app) ConfigStore(path string) (driven.ConfigStore, error) {
	return file.NewConfigStore(path)
}

func (a *app) Extractor(ctx context.Context, cfg domain.Config) (driving.Extractor, error) {
	manifests, err := a.manifests(cfg)
	if err != nil {
		return nil, err
	}
	radar, err := a.openRadar(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sequence, err := a.openSequence(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return services.NewExtractService(
		radar,
		sequence,
		csvfile.New(),
		filesystem.New(cfg.Paths.TracingInbox, cfg.Paths.TracingOutbox),
		manifests,
		metricsRecorder(cfg),
		cfg,
	), nil
}

func (a *app) Reconciler(_ context.Context, cfg domain.Config) (driving.Reconciler, error) {
	manifests, err := a.manifests(cfg)
	if err != nil {
		return nil, err
	}

	return services.NewReconcileService(
		radarTarget{app: a, cfg: cfg},
		csvfile.New(),
		filesystem.New(cfg.Paths.TracingInbox, cfg.Paths.TracingOutbox),
		xlsx.New(),
		manifests,
		metricsRecorder(cfg),
		cfg,
		func() driven.CorrectionBatch { return memory.NewCorrectionBatch() },
	)
}

func (a *app) Runs(_ context.Context, cfg domain.Config) (driving.RunCatalog, error) {
	manifests, err := a.manifests(cfg)
	if err != nil {
		return nil, err
	}
	return services.NewRunService(manifests), nil
}

func (a *app) Close() error {
	var errs []error
	if a.sequence != nil {
		errs = append(errs, a.sequence.Close())
	}
	if a.radar != nil {
		errs = append(errs, a.radar.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func (a *app) manifests(cfg domain.Config) (driven.ManifestStore, error) {
	if a.store == nil {
		store, err := sqlite.NewStore(cfg.Paths.ManifestDB)
		if err != nil {
			return nil, fmt.Errorf("open run manifest store: %w", err)
		}
		a.store = store
	}
	return a.store.ManifestStore(), nil
}

func (a *app) openRadar(ctx context.Context, cfg domain.Config) (*postgres.Store, error) {
	if a.radar != nil {
		return a.radar, nil
	}
	dsn := cfg.Radar.DSN
	if dsn == "" {
		dsn = os.Getenv("RADAR_DSN")
	}
	radar, err := postgres.NewStore(ctx, postgres.Options{
		DSN:              dsn,
		PatientQueryFile: cfg.Radar.PatientQuery,
		TraceUserID:      cfg.RadarTraceUser.ID,
	})
	if err != nil {
		return nil, err
	}
	a.radar = radar
	return radar, nil
}

// radarTarget connects to Radar when the first correction batch is opened.
type radarTarget struct {
	app *app
	cfg domain.Config
}

var _ driven.CorrectionTarget = radarTarget{}

func (t radarTarget) BeginCorrections(ctx context.Context) (driven.CorrectionBatch, error) {
	radar, err := t.app.openRadar(ctx, t.cfg)
	if err != nil {
		return nil, err
	}
	return radar.BeginCorrections(ctx)
}

func (a *app) openSequence(ctx context.Context, cfg domain.Config) (*mssql.Sequence, error) {
	if a.sequence != nil {
		return a.sequence, nil
	}
	sequence, err := mssql.NewSequence(ctx, mssql.CredentialsFromEnv(), cfg.Registry.Sequence)
	if err != nil {
		return nil, err
	}
	a.sequence = sequence
	return sequence, nil
}

// metricsRecorder returns nil when no textfile directory is configured.
func metricsRecorder(cfg domain.Config) driven.MetricsRecorder {
	if cfg.Metrics.TextfileDir == "" {
		return nil
	}
	return prometheus.New(cfg.Metrics.TextfileDir)
}
