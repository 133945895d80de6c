package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmdesk/complyd/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <template-id>",
	Short: "Synchronize tracking tasks with resolved requirement status",
	Long: `Run one reconciliation pass: create tasks for unmet required
requirements, complete tasks whose requirement is now satisfied, and reopen
done tasks whose requirement regressed. The pass is idempotent — running it
again with no underlying changes makes no writes — and never alters a
task's due date once set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		engine := reconcile.NewEngine(store, sink, cfg.Actor)
		engine.OnWarning = func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}

		result, err := engine.Reconcile(rootCtx, tenant(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("created: %d  completed: %d  reopened: %d\n",
			result.Created, result.Completed, result.Reopened)
		s := result.FinalSummary
		fmt.Printf("summary: %s %d  %s %d  %s %d  %s %d  (total %d)\n",
			color.GreenString("satisfied"), s.Satisfied,
			color.YellowString("missing"), s.Missing,
			color.RedString("expired"), s.Expired,
			color.CyanString("needs_review"), s.NeedsReview,
			s.Total)

		if len(result.Failures) > 0 {
			for _, f := range result.Failures {
				fmt.Fprintf(os.Stderr, "  %v\n", f)
			}
			return exitErr("%d requirement(s) failed; re-run reconcile to retry", len(result.Failures))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
