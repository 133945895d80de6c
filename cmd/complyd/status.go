package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmdesk/complyd/internal/resolver"
	"github.com/farmdesk/complyd/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <template-id>",
	Short: "Show resolved status for every requirement in a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		resolutions, err := resolver.ResolveAll(rootCtx, store, tenant(), args[0], time.Now())
		if err != nil {
			return err
		}
		if len(resolutions) == 0 {
			fmt.Println("No requirements in template", args[0])
			return nil
		}

		failed := 0
		for _, res := range resolutions {
			if res.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "  %-30s error: %v\n", res.Requirement.ID, res.Err)
				continue
			}
			doc := ""
			if res.Document != nil {
				doc = res.Document.Name
				if doc == "" {
					doc = res.Document.ID
				}
			}
			fmt.Printf("  %-30s %s %s\n", res.Requirement.ID, colorStatus(res.Status), doc)
		}

		if failed > 0 {
			return exitErr("%d requirement(s) could not be resolved", failed)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <template-id>",
	Short: "Show the aggregate compliance summary for a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		summary, err := resolver.SummarizeAll(rootCtx, store, tenant(), args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("satisfied:    %d\n", summary.Satisfied)
		fmt.Printf("missing:      %d\n", summary.Missing)
		fmt.Printf("expired:      %d\n", summary.Expired)
		fmt.Printf("needs_review: %d\n", summary.NeedsReview)
		fmt.Printf("total:        %d\n", summary.Total)
		return nil
	},
}

// colorStatus renders a resolved status padded to column width. Padding is
// applied before coloring: ANSI escape codes have zero display width but
// count toward %-14s, which would skew the columns.
func colorStatus(s types.ResolvedStatus) string {
	text := fmt.Sprintf("%-14s", string(s))
	switch s {
	case types.StatusSatisfied:
		return color.GreenString(text)
	case types.StatusMissing:
		return color.YellowString(text)
	case types.StatusExpired:
		return color.RedString(text)
	case types.StatusNeedsReview:
		return color.CyanString(text)
	}
	return text
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(summaryCmd)
}
