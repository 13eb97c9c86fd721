package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"strobe/internal/settings"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Show recent capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := settings.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No capture sessions recorded.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				outcome := session.Outcome
				if session.ErrorCategory != "" {
					outcome = fmt.Sprintf("%s (%s)", outcome, session.ErrorCategory)
				}
				duration := ""
				if session.FinishedAt != nil {
					duration = session.FinishedAt.Sub(session.StartedAt).Round(time.Second).String()
				}
				rows = append(rows, []string{
					session.StartedAt.Local().Format("2006-01-02 15:04:05"),
					session.Theme,
					outcome,
					duration,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Theme", "Outcome", "Duration"},
				rows,
				3,
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to show")
	return cmd
}
