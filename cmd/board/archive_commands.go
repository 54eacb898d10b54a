package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pricingboard/internal/api"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive done tasks and restore archived ones",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the retention sweep now (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			report, err := client.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Candidates: %d  Archived: %d  Stale: %d  Failed: %d\n",
				report.Candidates, report.Archived, report.Stale, len(report.Failed))
			if len(report.Failed) > 0 {
				rows := make([][]string, 0, len(report.Failed))
				for _, f := range report.Failed {
					rows = append(rows, []string{f.TaskID, f.Title, f.Error})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Error"}, rows, nil))
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Archive a done task (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			res, err := client.ArchiveTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTransition(cmd, args[0], res)
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an archived task to done (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			res, err := client.RestoreTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTransition(cmd, args[0], res)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			tasks, err := client.Archived(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Archive is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTasks(tasks))
			return nil
		},
	}

	archiveCmd.AddCommand(run, add, restore, list)
	return archiveCmd
}

func printTransition(cmd *cobra.Command, id string, res api.TransitionResponse) {
	if res.Outcome == "stale" {
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s no longer exists; nothing changed\n", id)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %s moved %s -> %s\n", id, res.From, res.To)
}
