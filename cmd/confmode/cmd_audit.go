package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/audit"
	"github.com/confmode/confmode/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of script runs.

Every run is logged with:
  - Timestamp
  - User who ran it
  - Script and subtree
  - Preview or execute
  - Success/failure status

Examples:
  confmode audit list --script rip
  confmode audit list --last 24h
  confmode audit list --user alice --failures`,
}

var (
	auditScript   string
	auditUser     string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditExecuted bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Script:      auditScript,
			User:        auditUser,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
			ExecuteOnly: auditExecuted,
		}

		// Parse --last duration
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable(os.Stdout, "TIMESTAMP", "USER", "SCRIPT", "MODE", "STATUS", "DURATION")
		for _, event := range events {
			status := cli.Green("ok")
			if !event.Success {
				status = cli.Red("failed")
			}
			mode := event.Mode()
			if !event.Execute {
				mode = cli.Dim(mode)
			}
			t.Row(
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.User,
				event.Script,
				mode,
				status,
				event.Duration.Round(time.Millisecond).String(),
			)
		}
		t.Flush()

		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditScript, "script", "", "Filter by script")
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed runs")
	auditListCmd.Flags().BoolVar(&auditExecuted, "executed", false, "Show only runs with -x")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
