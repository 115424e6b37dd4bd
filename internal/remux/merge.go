package remux

import (
	"context"
	"fmt"
	"os"
	"strings"

	"subforge/internal/fileutil"
	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

// MergeRequest describes the inputs for muxing a subtitle into a container.
type MergeRequest struct {
	ContainerPath string
	SubtitlePath  string
	Language      string // Table name, e.g. "Persian"
	TrackTitle    string
	// KeepSubtitleFile leaves the sidecar on disk after a successful merge.
	KeepSubtitleFile bool
}

// MergeSubtitle muxes a subtitle file into the container as a new track with
// both default and forced flags set. Existing subtitle tracks in the same
// language are removed first, so repeated runs never accumulate duplicates.
// The original container is never deleted until the mux has exited zero and
// the temp output has been verified.
func (m *Mutator) MergeSubtitle(ctx context.Context, req MergeRequest) error {
	code, err := language.CanonicalCode(req.Language)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.ContainerPath) == "" {
		return fmt.Errorf("%w: empty container path", ErrFileIntegrity)
	}
	if err := fileutil.EnsureNonEmpty(req.SubtitlePath); err != nil {
		return fmt.Errorf("%w: subtitle %v", ErrFileIntegrity, err)
	}

	// Idempotent de-duplication before adding the new track.
	if err := m.RemoveTracksByLanguage(ctx, req.ContainerPath, req.Language); err != nil {
		return err
	}

	if err := m.ensureSpaceFor(req.ContainerPath); err != nil {
		return err
	}

	tmpPath := mergeTempPath(req.ContainerPath)
	args := []string{
		"-o", tmpPath,
		req.ContainerPath,
		"--language", "0:" + code,
		"--track-name", "0:" + req.TrackTitle,
		"--default-track", "0:yes",
		"--forced-track", "0:yes",
		req.SubtitlePath,
	}
	if _, err := m.tool.Runner()(ctx, m.tool.MergeBinary(), args...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("merge %s into %s: %w", req.SubtitlePath, req.ContainerPath, err)
	}

	if err := m.verifyMerged(ctx, tmpPath, code); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := m.swap(tmpPath, req.ContainerPath); err != nil {
		return err
	}

	if !req.KeepSubtitleFile {
		if err := os.Remove(req.SubtitlePath); err != nil && m.logger != nil {
			m.logger.Warn("failed to remove subtitle sidecar after merge",
				logging.Error(err),
				logging.String("subtitle_path", req.SubtitlePath),
			)
		}
	}

	if m.logger != nil {
		m.logger.Info("subtitle merged into container",
			logging.String(logging.FieldEventType, "subtitle_merged"),
			logging.String(logging.FieldPath, req.ContainerPath),
			logging.String("language", req.Language),
			logging.String("track_title", req.TrackTitle),
			logging.Bool("kept_sidecar", req.KeepSubtitleFile),
		)
	}
	return nil
}

func (m *Mutator) verifyMerged(ctx context.Context, tmpPath, code string) error {
	if err := fileutil.EnsureNonEmpty(tmpPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFileIntegrity, err)
	}
	subs, err := m.tool.TracksByType(ctx, tmpPath, mkv.TrackSubtitles)
	if err != nil {
		return err
	}
	for _, track := range subs {
		if track.Language == code && track.Default && track.Forced {
			return nil
		}
	}
	return fmt.Errorf("%w: merged output has no default+forced %s subtitle track", mkv.ErrVerification, code)
}
