package trackflags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

var (
	// ErrNoAudioTracks is returned for containers without audio: a video
	// must have audio, so normalization cannot trivially succeed.
	ErrNoAudioTracks = errors.New("container has no audio tracks")
	// ErrNoAudioMatch is returned when no non-commentary audio track in the
	// target language exists to promote.
	ErrNoAudioMatch = errors.New("no audio track matches the target language")
)

// Display name written when a track is promoted to default+forced. Demotion
// clears the name, so the marker always mirrors the flags.
const forcedTrackName = "Forced"

const commentaryMarker = "commentary"

// Normalizer applies the flag rule table to one container at a time.
type Normalizer struct {
	logger *slog.Logger
	tool   *mkv.Tool
}

// NewNormalizer constructs a normalizer on top of the given container tool.
func NewNormalizer(logger *slog.Logger, tool *mkv.Tool) *Normalizer {
	return &Normalizer{
		logger: logging.NewComponentLogger(logger, "trackflags"),
		tool:   tool,
	}
}

// Normalize adjusts subtitle flags then audio flags for the container.
func (n *Normalizer) Normalize(ctx context.Context, containerPath, subtitleLanguage, audioLanguage string) error {
	if err := n.AdjustSubtitleFlags(ctx, containerPath, subtitleLanguage); err != nil {
		return err
	}
	return n.AdjustAudioFlags(ctx, containerPath, audioLanguage)
}

// AdjustSubtitleFlags makes the target-language subtitle track the only
// default+forced one. A container with zero subtitle tracks succeeds
// trivially. Tracks already in their canonical state are not edited.
func (n *Normalizer) AdjustSubtitleFlags(ctx context.Context, containerPath, languageName string) error {
	if _, err := language.Codes(languageName); err != nil {
		return err
	}

	tracks, err := n.tool.TracksByType(ctx, containerPath, mkv.TrackSubtitles)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		if n.logger != nil {
			n.logger.Debug("no subtitle tracks to normalize", logging.String(logging.FieldPath, containerPath))
		}
		return nil
	}

	for _, track := range tracks {
		matched := language.Matches(languageName, track.Language)
		switch {
		case matched:
			if track.Default && track.Forced {
				// Already canonical: zero edit calls.
				continue
			}
			if err := n.promote(ctx, containerPath, track); err != nil {
				return err
			}
		case track.Default || track.Forced || track.NameContains(forcedTrackName):
			// A stray non-target subtitle must not monopolize default
			// playback.
			if err := n.demote(ctx, containerPath, track); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdjustAudioFlags promotes the non-commentary target-language audio track
// and resets every other default, forced, or commentary track. Commentary in
// the target language is left alone entirely; it never becomes default.
func (n *Normalizer) AdjustAudioFlags(ctx context.Context, containerPath, languageName string) error {
	if _, err := language.Codes(languageName); err != nil {
		return err
	}

	tracks, err := n.tool.TracksByType(ctx, containerPath, mkv.TrackAudio)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAudioTracks, containerPath)
	}

	matchedAny := false
	for _, track := range tracks {
		matched := language.Matches(languageName, track.Language)
		commentary := track.NameContains(commentaryMarker)
		switch {
		case matched && !commentary:
			matchedAny = true
			if track.Default && track.Forced {
				continue
			}
			if err := n.promote(ctx, containerPath, track); err != nil {
				return err
			}
		case matched && commentary:
			// Left untouched: editing would clear the commentary marker.
		case commentary || track.Default || track.Forced:
			if !track.Default && !track.Forced {
				// Non-matching commentary with clean flags needs no edit,
				// and skipping it preserves the commentary name.
				continue
			}
			if err := n.demote(ctx, containerPath, track); err != nil {
				return err
			}
		}
	}

	if !matchedAny {
		return fmt.Errorf("%w: %s in %s", ErrNoAudioMatch, languageName, containerPath)
	}
	return nil
}

// promote sets default+forced and the marker name, then re-inspects the
// track by UID and confirms the flags took. No automatic retry: the caller
// retries the whole job if it wants to.
func (n *Normalizer) promote(ctx context.Context, containerPath string, track mkv.Track) error {
	edit := mkv.FlagEdit{UID: track.UID, Default: true, Forced: true, Name: forcedTrackName}
	if err := n.tool.SetTrackFlags(ctx, containerPath, edit); err != nil {
		return err
	}
	if err := n.tool.VerifyTrackFlags(ctx, containerPath, track.UID, true, true); err != nil {
		return err
	}
	n.logDecision(containerPath, track, "promoted")
	return nil
}

// demote clears both flags and the name, verified the same way as promotion.
func (n *Normalizer) demote(ctx context.Context, containerPath string, track mkv.Track) error {
	edit := mkv.FlagEdit{UID: track.UID}
	if err := n.tool.SetTrackFlags(ctx, containerPath, edit); err != nil {
		return err
	}
	if err := n.tool.VerifyTrackFlags(ctx, containerPath, track.UID, false, false); err != nil {
		return err
	}
	n.logDecision(containerPath, track, "demoted")
	return nil
}

func (n *Normalizer) logDecision(containerPath string, track mkv.Track, action string) {
	if n.logger == nil {
		return
	}
	n.logger.Info("track flags adjusted",
		logging.String(logging.FieldEventType, "flags_"+action),
		logging.String(logging.FieldPath, containerPath),
		logging.Uint64("uid", track.UID),
		logging.String("track_type", string(track.Type)),
		logging.String("track_language", track.Language),
	)
}
