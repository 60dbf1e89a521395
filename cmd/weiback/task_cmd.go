package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(taskStatusCmd, taskCancelCmd)
}

var taskStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current task's progress and any buffered subtask errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := theCore.GetCurrentTaskStatus()
		if snap == nil {
			fmt.Println("no task has run yet")
			return nil
		}
		fmt.Printf("%s  kind=%s status=%s progress=%d/%d\n", snap.ID, snap.Kind, snap.Status, snap.Progress, snap.Total)
		if snap.Error != "" {
			fmt.Printf("error: %s\n", snap.Error)
		}
		for _, e := range theCore.GetAndClearSubTaskErrors() {
			fmt.Printf("  subtask error [%s] %s: %s\n", e.Kind, e.Ref, e.Message)
		}
		return nil
	},
}

var taskCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the currently running task",
	RunE: func(cmd *cobra.Command, args []string) error {
		theCore.CancelCurrentTask()
		return nil
	},
}
