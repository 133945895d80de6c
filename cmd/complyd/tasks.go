package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farmdesk/complyd/internal/types"
)

var tasksAll bool

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tenant's tracking tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := openWorkspace(); err != nil {
			return err
		}
		defer closeWorkspace()

		tasks, err := store.ListTasks(rootCtx, tenant())
		if err != nil {
			return err
		}

		shown := 0
		for _, t := range tasks {
			if !tasksAll && t.Status == types.TaskDone {
				continue
			}
			shown++
			due := ""
			if t.DueAt != nil {
				due = "due " + t.DueAt.Format("2006-01-02")
				if t.Status != types.TaskDone && t.DueAt.Before(time.Now()) {
					due = color.RedString(due)
				}
			}
			prio := string(t.Priority)
			if t.Priority == types.PriorityUrgent {
				prio = color.RedString(prio)
			}
			fmt.Printf("  %-8s %-7s %-50s %s\n", t.Status, prio, t.Title, due)
		}
		if shown == 0 {
			fmt.Println("No open tasks")
		}
		return nil
	},
}

func init() {
	tasksCmd.Flags().BoolVar(&tasksAll, "all", false, "include done tasks")
	rootCmd.AddCommand(tasksCmd)
}
