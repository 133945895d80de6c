package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/farmdesk/complyd/internal/types"
)

var (
	docName    string
	docStatus  string
	docDate    string
	docExpires string
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage evidence documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add <document-id>",
	Short: "Register or update an evidence document",
	Long: `Register a document's compliance-relevant metadata. Only the
lifecycle status and dates matter to resolution; file contents live
elsewhere.

Examples:
  complyd doc add doc-123 --status ok --date 2026-06-01
  complyd doc add doc-123 --status ok --expires 2027-01-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		doc := &types.Document{
			ID:       args[0],
			TenantID: tenant(),
			Name:     docName,
			Status:   types.DocStatus(docStatus),
		}
		if docDate != "" {
			t, err := parseDate(docDate)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			doc.DocDate = &t
		}
		if docExpires != "" {
			t, err := parseDate(docExpires)
			if err != nil {
				return fmt.Errorf("--expires: %w", err)
			}
			doc.ExpiresAt = &t
		}

		if err := store.PutDocument(rootCtx, doc); err != nil {
			return err
		}
		fmt.Printf("Stored document %s (%s)\n", doc.ID, doc.Status)
		return nil
	},
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}

func init() {
	docAddCmd.Flags().StringVar(&docName, "name", "", "human-readable document name")
	docAddCmd.Flags().StringVar(&docStatus, "status", "needs_review", "lifecycle status (ok, needs_review, expired)")
	docAddCmd.Flags().StringVar(&docDate, "date", "", "document date (YYYY-MM-DD)")
	docAddCmd.Flags().StringVar(&docExpires, "expires", "", "expiry date (YYYY-MM-DD)")
	docCmd.AddCommand(docAddCmd)
	rootCmd.AddCommand(docCmd)
}
