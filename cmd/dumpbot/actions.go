package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/dumpbot/internal/workflow"
)

// maxRunsLimit is the largest page GitHub serves for workflow runs.
const maxRunsLimit = 100

var runsLimit int

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <url>",
	Short: "Start the dump workflow from the command line",
	Long: `Check the URL like /dump does and dispatch the workflow with it.
URLs that do not serve an archive are rejected and nothing is dispatched.

Examples:
  dumpbot dispatch https://example.com/firmware.zip`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSettings()
		wf := mustWorkflowClient(cfg)
		ctx := context.Background()
		raw := strings.Join(args, " ")

		sp := startSpinner("Checking " + raw)
		res := newValidator().Validate(ctx, raw)
		sp.Stop()
		if !res.Valid {
			fmt.Fprintf(os.Stderr, "Error: URL rejected (%s)", res.Reason)
			if res.ContentType != "" {
				fmt.Fprintf(os.Stderr, ", Content-Type: %s", res.ContentType)
			}
			fmt.Fprintln(os.Stderr)
			exitWithCode(ExitRejected)
		}

		sp = startSpinner("Dispatching " + wf.Repo() + " and waiting for the run")
		run, err := wf.Dispatch(ctx, raw)
		sp.Stop()
		if err != nil {
			fail(err, cfg)
		}
		fmt.Printf("Run %d\n", run.ID)
		fmt.Printf("Track:  %s\n", wf.RunURL(run.ID))
		fmt.Printf("Cancel: dumpbot cancel %d\n", run.ID)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "Cancel a workflow run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustSettings()
		wf := mustWorkflowClient(cfg)

		res := wf.Cancel(context.Background(), args[0])
		fmt.Println(res.Message())
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Detail: %v\n", res.Err)
		}
		switch res.Outcome {
		case workflow.CancelInvalidID:
			exitWithCode(ExitUsage)
		case workflow.CancelNotFound:
			exitWithCode(ExitNotFound)
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent workflow runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkRunsLimit(runsLimit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitUsage)
		}
		cfg := mustSettings()
		wf := mustWorkflowClient(cfg)

		runs, err := wf.Runs(context.Background(), runsLimit)
		if err != nil {
			fail(err, cfg)
		}
		if len(runs) == 0 {
			fmt.Println("No runs.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tCONCLUSION\tCREATED\tNAME")
		for _, r := range runs {
			conclusion := r.Conclusion
			if conclusion == "" {
				conclusion = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Status, conclusion, r.CreatedAt.Local().Format(time.DateTime), r.Name)
		}
		_ = w.Flush()
	},
}

func checkRunsLimit(n int) error {
	if n < 1 || n > maxRunsLimit {
		return fmt.Errorf("--limit must be between 1 and %d, got %d", maxRunsLimit, n)
	}
	return nil
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to show (1-100)")
}
