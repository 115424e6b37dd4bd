package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/config"
	"subforge/internal/remux"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var languageName string
	var trackTitle string
	var keepSubtitle bool

	cmd := &cobra.Command{
		Use:   "merge <file.mkv> <file.srt>",
		Short: "Merge a subtitle file into a container",
		Long: "Removes any existing subtitle tracks of the same language, then " +
			"adds the subtitle file as a new default+forced track. The container " +
			"is replaced atomically; it is left untouched on any failure.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			subtitlePath, err := config.ExpandPath(args[1])
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
			err = mutator.MergeSubtitle(cmd.Context(), remux.MergeRequest{
				ContainerPath:    videoPath,
				SubtitlePath:     subtitlePath,
				Language:         lang,
				TrackTitle:       trackTitle,
				KeepSubtitleFile: keepSubtitle,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged %s into %s\n", subtitlePath, videoPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&languageName, "language", "", "Subtitle language (defaults to configuration)")
	cmd.Flags().StringVar(&trackTitle, "title", "", "Track name for the merged subtitle")
	cmd.Flags().BoolVar(&keepSubtitle, "keep", false, "Keep the subtitle file after merging")
	return cmd
}
