package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmdesk/complyd/internal/types"
)

var linkOverride string

var linkCmd = &cobra.Command{
	Use:   "link <requirement-id> <document-id>",
	Short: "Link a document to a requirement",
	Long: `Associate a document with a requirement as its evidence. Relinking
replaces the previous association; at most one link exists per requirement.

An override bypasses evidence-based resolution:
  satisfied  requirement counts as met regardless of the document
  rejected   requirement counts as missing regardless of the document
  not_sure   requirement is flagged for review

Examples:
  complyd link manure-contract doc-123
  complyd link manure-contract doc-123 --override satisfied`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		override := types.Override(linkOverride)
		if !override.IsValid() {
			return fmt.Errorf("invalid override %q (want satisfied, rejected, or not_sure)", linkOverride)
		}

		link := &types.Link{
			TenantID:      tenant(),
			RequirementID: args[0],
			DocumentID:    args[1],
			Override:      override,
		}
		if err := store.UpsertLink(rootCtx, link); err != nil {
			return err
		}
		fmt.Printf("Linked %s -> %s\n", args[0], args[1])
		return nil
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <requirement-id>",
	Short: "Remove a requirement's document link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		if err := store.DeleteLink(rootCtx, tenant(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Unlinked %s\n", args[0])
		return nil
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkOverride, "override", "", "manual status override (satisfied, rejected, not_sure)")
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
}
