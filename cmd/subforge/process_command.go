package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/match"
	"subforge/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "process [dir]",
		Short: "Scan a library, merge subtitles, and normalize track flags",
		Long: "Walks the library directory, pairs every video with its sidecar " +
			"subtitle, and runs each pair through the full pipeline: convert, " +
			"clean, sync, merge, and flag normalization. Videos without a " +
			"subtitle sidecar get flag normalization only when listed explicitly.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			root := cfg.Paths.LibraryDir
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				root, err = filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolve library path: %w", err)
				}
			}

			pairs, err := match.FindPairs(root)
			if err != nil {
				return fmt.Errorf("scan library: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(pairs) == 0 {
				fmt.Fprintf(out, "No video/subtitle pairs found under %s\n", root)
				return nil
			}

			if dryRun {
				rows := make([][]string, 0, len(pairs))
				for _, pair := range pairs {
					rows = append(rows, []string{
						relativeTo(root, pair.VideoPath),
						relativeTo(root, pair.SubtitlePath),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Video", "Subtitle"}, rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			}

			ledger, err := ctx.openJournal()
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer ledger.Close()

			runner, err := ctx.runner(ledger)
			if err != nil {
				return err
			}
			runner.WithForce(force)

			opts := ctx.jobOptions()
			jobs := make([]*pipeline.Job, 0, len(pairs))
			for _, pair := range pairs {
				jobs = append(jobs, pipeline.NewJob(
					pair.VideoPath, pair.SubtitlePath,
					cfg.Languages.Subtitle, cfg.Languages.Audio,
					opts,
				))
			}

			summary, err := runner.ProcessAll(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Processed %d, skipped %d, failed %d\n",
				summary.Processed, summary.Skipped, summary.Failed)
			if summary.Failed > 0 {
				for _, job := range jobs {
					if job.State == pipeline.StateFailed {
						fmt.Fprintf(out, "  failed: %s: %v\n", job.VideoPath, job.Err)
					}
				}
				return fmt.Errorf("%d of %d jobs failed", summary.Failed, len(jobs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reprocess files the journal already marks done")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List matched pairs without processing them")
	return cmd
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
