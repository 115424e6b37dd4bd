package remux

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

// RemoveTracksByLanguage drops every subtitle track in the named language
// from the container. A container with no such tracks is left byte-identical
// and the call succeeds: absence of a language is not a failure.
func (m *Mutator) RemoveTracksByLanguage(ctx context.Context, containerPath, languageName string) error {
	codes, err := language.Codes(languageName)
	if err != nil {
		return err
	}

	tracks, err := m.tool.Inspect(ctx, containerPath)
	if err != nil {
		return err
	}

	codeSet := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		codeSet[code] = struct{}{}
	}

	removeIDs := make([]string, 0, 2)
	for _, track := range tracks {
		if track.Type != mkv.TrackSubtitles {
			continue
		}
		if _, ok := codeSet[track.Language]; ok {
			removeIDs = append(removeIDs, strconv.Itoa(track.ID))
		}
	}

	if len(removeIDs) == 0 {
		if m.logger != nil {
			m.logger.Debug("no subtitle tracks to remove",
				logging.String(logging.FieldPath, containerPath),
				logging.String("language", languageName),
			)
		}
		return nil
	}

	if err := m.ensureSpaceFor(containerPath); err != nil {
		return err
	}

	tmpPath := removeTempPath(containerPath)
	args := []string{
		"-o", tmpPath,
		// Inverse subtitle selection: keep everything except the listed ids.
		"-s", "!" + strings.Join(removeIDs, ","),
		containerPath,
	}
	if _, err := m.tool.Runner()(ctx, m.tool.MergeBinary(), args...); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("remove %s subtitle tracks from %s: %w", languageName, containerPath, err)
	}

	// The original is not touched until the temp output proves the target
	// tracks are really gone.
	remaining, err := m.tool.TracksByType(ctx, tmpPath, mkv.TrackSubtitles)
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	for _, track := range remaining {
		if _, ok := codeSet[track.Language]; ok {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("%w: %s subtitle track (uid %d) survived removal in %s",
				mkv.ErrVerification, languageName, track.UID, containerPath)
		}
	}

	if err := m.swap(tmpPath, containerPath); err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("subtitle tracks removed",
			logging.String(logging.FieldEventType, "tracks_removed"),
			logging.String(logging.FieldPath, containerPath),
			logging.String("language", languageName),
			logging.Int("track_count", len(removeIDs)),
		)
	}
	return nil
}
