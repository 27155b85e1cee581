package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var extractDate string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract Radar patients and send them for tracing",
	Long: `Queries Radar for patients to trace, writes the audit file, asks RR for the
next tracing batch number and delivers the trace request to the tracing inbox.

A run manifest is recorded so 'radar-trace reconcile' can find the audit file
once the traced file comes back.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDate, "date", "", "run date as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	runDate := time.Now()
	if extractDate != "" {
		parsed, err := time.Parse("2006-01-02", extractDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", extractDate)
		}
		runDate = parsed
	}

	ctx := cmd.Context()
	extractor, err := builder.Extractor(ctx, loadedConfig)
	if err != nil {
		return err
	}

	manifest, err := extractor.Extract(ctx, runDate)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	cmd.Printf("Run %s extracted.\n", manifest.ID)
	cmd.Printf("  Audit file:     %s\n", manifest.AuditFile)
	cmd.Printf("  Request number: %d\n", manifest.RequestNumber)
	for _, f := range manifest.TraceFiles {
		cmd.Printf("  Trace request:  %s\n", f)
	}
	return nil
}
