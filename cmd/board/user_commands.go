package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Register users and manage roles",
	}

	var email string
	register := &cobra.Command{
		Use:   "register <display name>",
		Short: "Register a user and print its session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(false)
			if err != nil {
				return err
			}
			reg, err := client.Register(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %s (%s)\n", reg.User.DisplayName, reg.User.ID)
			fmt.Fprintln(out, "An admin must assign a role before this user can change the board.")
			fmt.Fprintf(out, "export %s=%s\n", tokenEnv, reg.Token)
			return nil
		},
	}
	register.Flags().StringVar(&email, "email", "", "Contact email")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered users (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			users, err := client.Users(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users registered")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderUsers(users))
			return nil
		},
	}

	assign := &cobra.Command{
		Use:   "assign-role <user id> <role>",
		Short: "Assign one of admin, client, dataManager, dataQA, dataScientist, promptEngineer (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			user, err := client.AssignRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.DisplayName, user.RoleLabel)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <user id>",
		Short: "Remove a user and revoke their sessions (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client(true)
			if err != nil {
				return err
			}
			if err := client.RemoveUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s\n", args[0])
			return nil
		},
	}

	userCmd.AddCommand(register, list, assign, remove)
	return userCmd
}
