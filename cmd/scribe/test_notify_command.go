package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
	"scribe/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// Prefer the daemon so the test exercises its notifier
			// configuration; fall back to a direct send when it is
			// not running.
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					if resp != nil && resp.Message != "" {
						fmt.Fprintln(out, resp.Message)
					}
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(out, resp.Message)
				case resp.Sent:
					fmt.Fprintln(out, "Test notification sent")
				default:
					fmt.Fprintln(out, "Notification not sent")
				}
				return nil
			})
			if err == nil {
				return nil
			}

			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			notifier := notifications.NewService(cfg)
			if sendErr := notifier.TestNotification(cmd.Context()); sendErr != nil {
				return sendErr
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
}
