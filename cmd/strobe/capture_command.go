package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Start a capture session",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var resp struct {
				SessionID string `json:"session_id"`
			}
			body := map[string]string{"theme": theme}
			if err := newAPIClient(address).post("/api/capture", body, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Capture session started: %s\n", resp.SessionID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&theme, "theme", "t", "", "Theme for the styled image")
	return cmd
}

func newThemeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "theme <name>",
		Short: "Select the theme for the next capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			body := map[string]string{"theme": args[0]}
			if err := newAPIClient(address).post("/api/theme", body, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme selected: %s\n", args[0])
			return nil
		},
	}
}
