package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pricingboard/internal/api"
	"pricingboard/internal/daemonctl"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Create, inspect, and move tasks",
	}
	taskCmd.AddCommand(
		newTaskAddCommand(ctx),
		newTaskListCommand(ctx),
		newTaskShowCommand(ctx),
		newTaskEditCommand(ctx),
		newTaskMoveCommand(ctx),
		newTaskReorderCommand(ctx),
		newTaskRemoveCommand(ctx),
	)
	return taskCmd
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	var file, due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in raw with its first attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return errors.New("--file is required")
			}
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			task, err := client.CreateTask(cmd.Context(), daemonctl.CreateRequest{Title: args[0], DueDate: due, FilePath: file})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s\n", task.ID, task.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Attachment to upload")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var sortKey, order, stage string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the board grouped by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			resp, err := client.Board(cmd.Context(), sortKey, order)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			shown := 0
			for _, col := range resp.Columns {
				if stage != "" && !strings.EqualFold(stage, col.Stage) {
					continue
				}
				shown++
				fmt.Fprintf(out, "%s (%d)\n", col.Label, len(col.Tasks))
				if len(col.Tasks) > 0 {
					fmt.Fprintln(out, renderTasks(col.Tasks))
				}
			}
			if shown == 0 {
				return fmt.Errorf("unknown stage %q", stage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort key: position, title, createdBy, createdAt, dueDate")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc or desc")
	cmd.Flags().StringVar(&stage, "stage", "", "Only show one stage")
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and the attachments you may see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			task, err := client.Task(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(cmd, task)
			return nil
		},
	}
}

func printTask(cmd *cobra.Command, task api.Task) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:         %s\n", task.ID)
	fmt.Fprintf(out, "Title:      %s\n", task.Title)
	fmt.Fprintf(out, "Stage:      %s\n", task.Status)
	fmt.Fprintf(out, "Created by: %s\n", dash(task.CreatedBy))
	fmt.Fprintf(out, "Due:        %s\n", dash(task.DueDate))
	fmt.Fprintf(out, "Link:       %s\n", dash(task.Link))
	if len(task.Attachments) == 0 {
		fmt.Fprintln(out, "No visible attachments")
		return
	}
	fmt.Fprintln(out, renderAttachments(task.Attachments))
}

func newTaskEditCommand(ctx *commandContext) *cobra.Command {
	var (
		title, due, link, file string
		clearDue               bool
		remove                 []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit fields, remove attachments, or upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := daemonctl.EditRequest{Remove: remove, FilePath: file}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("link") {
				req.Link = &link
			}
			switch {
			case clearDue:
				empty := ""
				req.DueDate = &empty
			case flags.Changed("due"):
				req.DueDate = &due
			}
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			res, err := client.EditTask(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Stale {
				fmt.Fprintln(out, "Task no longer exists; nothing changed")
				return nil
			}
			for _, a := range res.Unreleased {
				fmt.Fprintf(out, "warning: could not delete %s; it stays attached\n", a.FilePath)
			}
			if res.Task != nil {
				printTask(cmd, *res.Task)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVar(&link, "link", "", "Pricing link (pricing and done only)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Attachment to upload")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "Attachment location to delete (repeatable)")
	return cmd
}

func newTaskMoveCommand(ctx *commandContext) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a task to another stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			res, err := client.Move(cmd.Context(), args[0], args[1], index)
			if err != nil {
				return err
			}
			printMove(cmd, args[0], res)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "Position in the target stage (-1 appends)")
	return cmd
}

func newTaskReorderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <index>",
		Short: "Change a task's position within its stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			task, err := client.Task(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := client.Move(cmd.Context(), task.ID, task.Status, index)
			if err != nil {
				return err
			}
			printMove(cmd, task.ID, res)
			return nil
		},
	}
}

// moveVerbs renders drag outcomes for people.
var moveVerbs = map[string]string{
	"transitioned": "moved to",
	"reordered":    "reordered in",
}

func printMove(cmd *cobra.Command, id string, res api.MoveResponse) {
	out := cmd.OutOrStdout()
	verb, known := moveVerbs[res.Outcome]
	switch {
	case res.Outcome == "stale":
		fmt.Fprintf(out, "Task %s no longer exists; nothing changed\n", id)
	case known && res.Task != nil:
		fmt.Fprintf(out, "Task %s %s %s at position %d\n", id, verb, res.Task.Status, res.Task.Position)
	default:
		fmt.Fprintf(out, "Task %s %s\n", id, res.Outcome)
	}
}

func newTaskRemoveCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a task and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("removal deletes every attachment; re-run with --yes to confirm")
			}
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			res, err := client.Remove(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			if res.Outcome == "stale" {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s was already gone\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removal")
	return cmd
}
