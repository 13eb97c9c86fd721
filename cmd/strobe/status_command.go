package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show booth state and library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var status statusView
			if err := newAPIClient(address).get("/api/status", &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Capture", colorize)

			captureKind := statusOK
			captureMsg := status.Capture.State
			switch status.Capture.State {
			case "error":
				captureKind = statusError
				captureMsg = fmt.Sprintf("%s (%s)", status.Capture.ErrorMessage, status.Capture.ErrorCategory)
			case "counting_down":
				captureMsg = fmt.Sprintf("counting down (%ds)", status.Capture.CountdownRemaining)
			case "minimum_display":
				captureMsg = fmt.Sprintf("minimum display (%ds left)", status.Capture.MinimumDisplayRemaining)
			}
			lines = append(lines, renderStatusLine("State", captureKind, captureMsg, colorize))
			if status.Capture.Theme != "" {
				lines = append(lines, renderStatusLine("Theme", statusInfo, status.Capture.Theme, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Slideshow", colorize)...)
			if status.Slideshow.Active {
				half := "themed"
				if status.Slideshow.ShowingOriginal {
					half = "original"
				}
				lines = append(lines, renderStatusLine("State", statusOK,
					fmt.Sprintf("pair %d/%d (%s), %ds per image",
						status.Slideshow.PairIndex+1, status.Slideshow.PairCount, half,
						status.Slideshow.DisplaySeconds), colorize))
			} else {
				lines = append(lines, renderStatusLine("State", statusInfo, "inactive", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Library", colorize)...)
			lines = append(lines, renderStatusLine("Pairs", statusInfo,
				fmt.Sprintf("%d (%d orphans)", status.Statistics.PairCount, status.Statistics.OrphanCount), colorize))
			lines = append(lines, renderStatusLine("Size", statusInfo,
				formatBytes(status.Statistics.TotalSizeBytes), colorize))
			if status.Statistics.OldestAgeDays > 0 {
				lines = append(lines, renderStatusLine("Oldest", statusInfo,
					fmt.Sprintf("%.1f days", status.Statistics.OldestAgeDays), colorize))
			}
			cleanupKind := statusOK
			cleanupMsg := "not needed"
			if status.Statistics.NeedsCleanup {
				cleanupKind = statusWarn
				cleanupMsg = "recommended (run 'strobe cleanup')"
			}
			lines = append(lines, renderStatusLine("Cleanup", cleanupKind, cleanupMsg, colorize))
			lines = append(lines, renderStatusLine("Displays", statusInfo,
				fmt.Sprintf("%d connected", status.Clients), colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
