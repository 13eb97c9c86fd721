package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var result struct {
				Sent bool `json:"sent"`
			}
			if err := newAPIClient(address).post("/api/notify/test", nil, &result); err != nil {
				return err
			}
			if result.Sent {
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}
