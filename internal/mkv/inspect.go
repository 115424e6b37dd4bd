package mkv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"subforge/internal/logging"
)

// Default binary names; overridable through config for non-PATH installs.
const (
	DefaultMergeBinary    = "mkvmerge"
	DefaultPropeditBinary = "mkvpropedit"
)

// Tool reads and edits container track metadata.
type Tool struct {
	logger         *slog.Logger
	mergeBinary    string
	propeditBinary string
	run            CommandRunner
	timeout        time.Duration
}

// NewTool constructs a Tool using binaries found on PATH.
func NewTool(logger *slog.Logger) *Tool {
	return &Tool{
		logger:         logging.NewComponentLogger(logger, "mkv"),
		mergeBinary:    DefaultMergeBinary,
		propeditBinary: DefaultPropeditBinary,
		run:            DefaultCommandRunner,
	}
}

// WithBinaries overrides the mkvmerge and mkvpropedit binary paths.
func (t *Tool) WithBinaries(merge, propedit string) *Tool {
	if strings.TrimSpace(merge) != "" {
		t.mergeBinary = merge
	}
	if strings.TrimSpace(propedit) != "" {
		t.propeditBinary = propedit
	}
	return t
}

// WithCommandRunner injects a custom command runner for tests.
func (t *Tool) WithCommandRunner(r CommandRunner) *Tool {
	if r != nil {
		t.run = r
	}
	return t
}

// WithTimeout bounds every subprocess invocation. Zero disables the bound.
func (t *Tool) WithTimeout(d time.Duration) *Tool {
	t.timeout = d
	return t
}

// MergeBinary returns the configured mkvmerge binary.
func (t *Tool) MergeBinary() string {
	return t.mergeBinary
}

// Runner returns the tool's command runner, with the configured timeout
// applied, so sibling packages share one subprocess seam.
func (t *Tool) Runner() CommandRunner {
	run := t.run
	timeout := t.timeout
	if timeout <= 0 {
		return run
	}
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return run(ctx, name, args...)
	}
}

// Inspect identifies the container and returns a fresh track snapshot.
// Results are never cached: each call re-runs mkvmerge so positional IDs are
// valid for the returned snapshot only.
func (t *Tool) Inspect(ctx context.Context, path string) ([]Track, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty container path", ErrInspection)
	}

	output, err := t.Runner()(ctx, t.mergeBinary, "-J", path)
	if err != nil {
		return nil, fmt.Errorf("%w: identify %s: %w", ErrInspection, path, err)
	}

	var decoded identifyOutput
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, fmt.Errorf("%w: parse identify output for %s: %w", ErrInspection, path, err)
	}

	tracks := make([]Track, 0, len(decoded.Tracks))
	for _, it := range decoded.Tracks {
		tracks = append(tracks, it.toTrack())
	}

	if t.logger != nil {
		t.logger.Debug("container inspected",
			logging.String("path", path),
			logging.Int("track_count", len(tracks)),
		)
	}
	return tracks, nil
}

// TracksByType returns the container's tracks of one kind. A container with
// no tracks of that kind yields an empty slice, not an error.
func (t *Tool) TracksByType(ctx context.Context, path string, kind TrackType) ([]Track, error) {
	tracks, err := t.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	filtered := make([]Track, 0, len(tracks))
	for _, track := range tracks {
		if track.Type == kind {
			filtered = append(filtered, track)
		}
	}
	return filtered, nil
}

// ResolveTrackID re-inspects the container and maps a stable UID to its
// current positional ID. The second result is false when the UID no longer
// exists; callers must treat that as fatal for the edit they were about to
// perform rather than fall back to a stale ID.
func (t *Tool) ResolveTrackID(ctx context.Context, path string, uid uint64) (int, bool, error) {
	tracks, err := t.Inspect(ctx, path)
	if err != nil {
		return 0, false, err
	}
	for _, track := range tracks {
		if track.UID == uid {
			return track.ID, true, nil
		}
	}
	return 0, false, nil
}

// TrackByUID re-inspects the container and returns the track carrying uid.
func (t *Tool) TrackByUID(ctx context.Context, path string, uid uint64) (Track, error) {
	tracks, err := t.Inspect(ctx, path)
	if err != nil {
		return Track{}, err
	}
	for _, track := range tracks {
		if track.UID == uid {
			return track, nil
		}
	}
	return Track{}, fmt.Errorf("%w: uid %d in %s", ErrTrackNotFound, uid, path)
}
