package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subforge/internal/config"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var subtitleLanguage string
	var audioLanguage string

	cmd := &cobra.Command{
		Use:   "normalize <file.mkv> [file.mkv...]",
		Short: "Normalize default and forced track flags without merging",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			normalizer, err := ctx.normalizer()
			if err != nil {
				return err
			}

			subLang := subtitleLanguage
			if subLang == "" {
				subLang = cfg.Languages.Subtitle
			}
			audLang := audioLanguage
			if audLang == "" {
				audLang = cfg.Languages.Audio
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				if err := normalizer.Normalize(cmd.Context(), path, subLang, audLang); err != nil {
					failed++
					fmt.Fprintf(out, "failed: %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "normalized: %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subtitleLanguage, "subtitle-language", "", "Subtitle language to promote (defaults to configuration)")
	cmd.Flags().StringVar(&audioLanguage, "audio-language", "", "Audio language to promote (defaults to configuration)")
	return cmd
}
