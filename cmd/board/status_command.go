package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pricingboard/internal/api"
	"pricingboard/internal/board"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, job, and board status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon:   %s (pid %d)\n", runningLabel(status.Running), status.PID)
	fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
	fmt.Fprintf(out, "Lock:     %s\n", status.LockFilePath)
	if status.Identity != nil {
		fmt.Fprintf(out, "Signed in as %s (%s)\n", status.Identity.DisplayName, status.Identity.RoleLabel)
	}

	countRows := make([][]string, 0, len(board.AllStages()))
	for _, stage := range board.AllStages() {
		countRows = append(countRows, []string{stage.Label(), strconv.Itoa(status.Counts[string(stage)])})
	}
	fmt.Fprintln(out, renderTable([]string{"Stage", "Tasks"}, countRows, []columnAlignment{alignLeft, alignRight}))

	if len(status.Workflow.Jobs) > 0 {
		jobRows := make([][]string, 0, len(status.Workflow.Jobs))
		for _, job := range status.Workflow.Jobs {
			jobRows = append(jobRows, []string{
				job.Name,
				job.Interval,
				strconv.Itoa(job.Runs),
				strconv.Itoa(job.Failures),
				dash(job.LastRun),
				dash(job.LastError),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Job", "Every", "Runs", "Failures", "Last Run", "Last Error"},
			jobRows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
		))
	}

	if len(status.Checks) > 0 {
		checkRows := make([][]string, 0, len(status.Checks))
		for _, check := range status.Checks {
			checkRows = append(checkRows, []string{check.Name, yesNo(check.Passed), yesNo(check.Optional), dash(check.Detail)})
		}
		fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Optional", "Detail"}, checkRows, nil))
	}
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
