package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newPairsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs",
		Short: "List photo pairs in the library, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			var view pairsView
			if err := newAPIClient(address).get("/api/pairs", &view); err != nil {
				return err
			}
			if len(view.Pairs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No photo pairs in the library.")
				return nil
			}

			rows := make([][]string, 0, len(view.Pairs))
			for i, pair := range view.Pairs {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					pair.Timestamp,
					filepath.Base(pair.Original),
					filepath.Base(pair.Themed),
					formatBytes(pair.Bytes),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Timestamp", "Original", "Themed", "Size"},
				rows,
				0, 4,
			))
			return nil
		},
	}
}
