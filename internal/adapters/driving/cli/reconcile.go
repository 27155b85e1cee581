package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driving"
)

var (
	reconcileRunID      string
	reconcileTracedFile string
	reconcileDryRun     bool
	reconcileWait       time.Duration
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a traced file against its audit file",
	Long: `Collects the traced file for the latest extracted run (or --run) from the
tracing outbox, compares it with the audit file and writes the discrepancy
workbook. Dates of death missing in Radar are written back in one transaction.

With --dry-run the workbook is written but Radar and the run manifest are left
untouched. With --wait the command blocks until the traced file reaches the
outbox.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileRunID, "run", "", "run id to reconcile (default latest extracted run)")
	reconcileCmd.Flags().StringVar(&reconcileTracedFile, "traced-file", "", "use a local traced file instead of the tracing outbox")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "write the report without updating Radar")
	reconcileCmd.Flags().DurationVar(&reconcileWait, "wait", 0, "wait this long for the traced file to reach the outbox")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	reconciler, err := builder.Reconciler(ctx, loadedConfig)
	if err != nil {
		return err
	}

	summary, err := reconciler.Reconcile(ctx, driving.ReconcileOptions{
		RunID:      reconcileRunID,
		TracedFile: reconcileTracedFile,
		DryRun:     reconcileDryRun,
		Wait:       reconcileWait,
	})
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s *domain.RunSummary) {
	if s.DryRun {
		cmd.Printf("Run %s reconciled (dry run, Radar not updated).\n", s.RunID)
	} else {
		cmd.Printf("Run %s reconciled.\n", s.RunID)
	}
	cmd.Printf("  Rows joined:     %d\n", s.RowsJoined)
	cmd.Printf("  Join failures:   %d\n", len(s.JoinFailures))
	cmd.Printf("  Malformed dates: %d\n", s.MalformedDates)
	cmd.Printf("  Discrepancies:   %d\n", s.TotalDiscrepancies())
	for _, c := range domain.Categories {
		if n := s.Discrepancies[c]; n > 0 {
			cmd.Printf("    %-14s %d\n", c.Sheet(), n)
		}
	}
	cmd.Printf("  Corrections:     %d\n", s.Corrections)
	cmd.Printf("  Report:          %s\n", s.ReportFile)

	for _, f := range s.JoinFailures {
		cmd.Printf("Warning: %v\n", f.Err())
	}
}
