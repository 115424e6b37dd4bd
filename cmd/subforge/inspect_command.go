package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subforge/internal/config"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.mkv>",
		Short: "Show the tracks of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			tool, err := ctx.mkvTool()
			if err != nil {
				return err
			}

			tracks, err := tool.Inspect(cmd.Context(), path)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				rows = append(rows, []string{
					strconv.Itoa(track.ID),
					strconv.FormatUint(track.UID, 10),
					string(track.Type),
					track.Language,
					yesNo(track.Default),
					yesNo(track.Forced),
					track.Name,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "UID", "Type", "Lang", "Default", "Forced", "Name"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
