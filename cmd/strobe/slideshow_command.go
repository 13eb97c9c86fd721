package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSlideshowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slideshow",
		Short: "Control the attraction slideshow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start slideshow playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var view slideshowView
			if err := newAPIClient(address).post("/api/slideshow/start", nil, &view); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Slideshow started with %d pairs.\n", view.PairCount)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop slideshow playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			if err := newAPIClient(address).post("/api/slideshow/stop", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Slideshow stopped.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "duration <seconds>",
		Short: "Set the per-image display duration (2-10 seconds)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q", args[0])
			}
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var resp struct {
				Seconds int `json:"seconds"`
			}
			if err := newAPIClient(address).post("/api/slideshow/duration", map[string]int{"seconds": seconds}, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Display duration set to %ds.\n", resp.Seconds)
			return nil
		},
	})

	return cmd
}
