package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

var runsJSON bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded tracing runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one tracing run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "output as JSON")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	catalog, err := builder.Runs(ctx, loadedConfig)
	if err != nil {
		return err
	}

	runs, err := catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsJSON {
		return outputJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tREQUEST\tAUDIT FILE\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Status, r.RequestNumber, r.AuditFile, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	catalog, err := builder.Runs(ctx, loadedConfig)
	if err != nil {
		return err
	}

	run, err := catalog.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	if runsJSON {
		return outputJSON(cmd, run)
	}

	cmd.Printf("Run:            %s\n", run.ID)
	cmd.Printf("Status:         %s\n", run.Status)
	cmd.Printf("Request number: %d\n", run.RequestNumber)
	cmd.Printf("Audit file:     %s\n", run.AuditFile)
	for _, f := range run.TraceFiles {
		cmd.Printf("Trace request:  %s\n", f)
	}
	cmd.Printf("Created:        %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.Status == domain.RunStatusReconciled {
		cmd.Printf("Reconciled:     %s\n", run.ReconciledAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("Report:         %s\n", run.ReportFile)
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
