package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed files from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := ctx.openJournal()
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer ledger.Close()

			entries, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Journal is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := ""
				if entry.ErrorMessage != "" {
					detail = entry.ErrorMessage
				}
				rows = append(rows, []string{
					entry.CompletedAt.Local().Format(time.DateTime),
					entry.State,
					entry.SubtitleLanguage,
					entry.VideoPath,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Completed", "State", "Lang", "Video", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
