package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"releasewatch/internal/classify"
	"releasewatch/internal/discord"
	"releasewatch/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify [category]",
		Short: "Send a test message to a category webhook, or to ntfy when no category is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, "ntfy topic not configured")
					return nil
				}
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					return fmt.Errorf("send test notification: %w", err)
				}
				fmt.Fprintln(out, "Test notification sent")
				return nil
			}

			category, ok := classify.Parse(args[0])
			if !ok {
				return fmt.Errorf("unknown category %q (expected demo, coop, multiplayer, or solo)", args[0])
			}
			webhook := cfg.Channel(string(category))
			if webhook == "" {
				return fmt.Errorf("no webhook configured for %s", category)
			}
			client := discord.NewClient(time.Duration(cfg.Dispatch.RequestTimeout) * time.Second)
			receipt, err := client.Send(cmd.Context(), webhook, discord.Message{
				Content:  fmt.Sprintf("releasewatch test message for the **%s** channel", category.Label()),
				Username: cfg.Dispatch.Username,
			})
			if err != nil {
				return fmt.Errorf("send test message: %w", err)
			}
			if receipt.MessageID != "" {
				fmt.Fprintf(out, "Test message sent to %s (message %s)\n", category.Label(), receipt.MessageID)
			} else {
				fmt.Fprintf(out, "Test message sent to %s\n", category.Label())
			}
			return nil
		},
	}
}
