package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/config"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var languageName string

	cmd := &cobra.Command{
		Use:   "remove <file.mkv>",
		Short: "Remove subtitle tracks of a language from a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			lang := languageName
			if lang == "" {
				lang = cfg.Languages.Subtitle
			}

			mutator, err := ctx.mutator()
			if err != nil {
				return err
			}
			if err := mutator.RemoveTracksByLanguage(cmd.Context(), path, lang); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s subtitle tracks from %s\n", lang, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&languageName, "language", "", "Subtitle language to remove (defaults to configuration)")
	return cmd
}
