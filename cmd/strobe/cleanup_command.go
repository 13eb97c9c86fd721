package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Evict photo pairs past the retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var report cleanupView
			if err := newAPIClient(address).post("/api/cleanup", nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.FilesRemoved == 0 {
				fmt.Fprintln(out, "Nothing to clean up.")
				return nil
			}
			fmt.Fprintf(out, "Removed %d pairs and %d orphans (%d files, %s freed).\n",
				report.PairsRemoved, report.OrphansRemoved, report.FilesRemoved,
				formatBytes(report.BytesFreed))
			if len(report.Failures) > 0 {
				fmt.Fprintf(out, "%d files could not be removed:\n", len(report.Failures))
				for _, failure := range report.Failures {
					fmt.Fprintf(out, "  %s\n", failure)
				}
			}
			return nil
		},
	}
}
