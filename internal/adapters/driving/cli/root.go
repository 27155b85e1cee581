// Package cli provides the radar-trace command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
	"github.com/custodia-labs/radar-trace/internal/logger"
)

// Builder constructs the services a command needs once flags are parsed.
// Commands only ask for what they use, so database connections are opened lazily.
type Builder interface {
	// LoadConfig reads and validates the configuration file at path.
	LoadConfig(path string) (domain.Config, error)

	// ConfigStore opens the raw key/value view of the configuration file at path.
	ConfigStore(path string) (driven.ConfigStore, error)

	Extractor(ctx context.Context, cfg domain.Config) (driving.Extractor, error)
	Reconciler(ctx context.Context, cfg domain.Config) (driving.Reconciler, error)
	Runs(ctx context.Context, cfg domain.Config) (driving.RunCatalog, error)

	// Close releases every connection opened by the builder.
	Close() error
}

var (
	version = "dev"

	builder Builder

	configPath string
	verbose    bool

	// loadedConfig is set by the root pre-run for commands that need it.
	loadedConfig domain.Config
)

var rootCmd = &cobra.Command{
	Use:   "radar-trace",
	Short: "Trace Radar patients against the national registers",
	Long: `radar-trace extracts Radar patient demographics for NHS tracing and
reconciles the traced file returned by the tracing partner.

Stage 1 (extract) writes the audit file and the trace request.
Stage 2 (reconcile) produces the discrepancy workbook and records
missing dates of death back into Radar.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print the run log to stderr")
}

// needsConfig reports whether cmd reads the typed configuration.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == versionCmd || c == configCmd {
			return false
		}
	}
	return true
}

func initRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if !needsConfig(cmd) {
		return nil
	}
	if builder == nil {
		return errors.New("services not configured")
	}

	cfg, err := builder.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Logging.File != "" {
		if err := logger.Init(cfg.Logging.File, cfg.Logging.Level); err != nil {
			return err
		}
	}
	loadedConfig = cfg
	return nil
}

// Execute runs the root command with services supplied by b.
func Execute(b Builder, v string) error {
	builder = b
	if v != "" {
		version = v
	}
	defer func() {
		_ = logger.Sync()
		if err := b.Close(); err != nil {
			logger.Warn("closing connections: %v", err)
		}
	}()

	err := rootCmd.Execute()
	if err != nil {
		logger.Error("%v", err)
	}
	return err
}
