package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pricingboard/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification with the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.Provider) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled (set [notifications] provider)")
				return nil
			}
			svc := notifications.NewService(cfg)
			if err := svc.Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", cfg.Notifications.Provider)
			return nil
		},
	}
}
