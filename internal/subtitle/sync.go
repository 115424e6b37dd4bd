package subtitle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subforge/internal/fileutil"
	"subforge/internal/logging"
)

// DefaultSyncBinary is the timing synchronizer invoked for each pair.
const DefaultSyncBinary = "ffsubsync"

// syncRunner executes the external synchronizer; injected in tests.
type syncRunner func(ctx context.Context, name string, args ...string) error

// Syncer aligns subtitle timing against the video's audio using ffsubsync.
type Syncer struct {
	logger  *slog.Logger
	binary  string
	timeout time.Duration
	run     syncRunner
}

// NewSyncer constructs a syncer with the given subprocess timeout. A zero
// timeout means the external tool may run unbounded.
func NewSyncer(logger *slog.Logger, binary string, timeout time.Duration) *Syncer {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultSyncBinary
	}
	return &Syncer{
		logger:  logging.NewComponentLogger(logger, "syncer"),
		binary:  binary,
		timeout: timeout,
		run:     defaultSyncRunner,
	}
}

// WithRunner injects a custom runner for tests.
func (s *Syncer) WithRunner(r syncRunner) *Syncer {
	if r != nil {
		s.run = r
	}
	return s
}

// Sync rewrites subtitlePath with timing aligned to videoPath. The tool
// writes to a sibling temp file which replaces the original only after the
// synchronizer exits zero and produced non-empty output.
func (s *Syncer) Sync(ctx context.Context, videoPath, subtitlePath string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	dir := filepath.Dir(subtitlePath)
	base := filepath.Base(subtitlePath)
	tmpPath := filepath.Join(dir, ".sync-"+base+".tmp")

	err := s.run(ctx, s.binary, videoPath, "-i", subtitlePath, "-o", tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("sync %s timed out after %s: %w", subtitlePath, s.timeout, err)
		}
		return fmt.Errorf("sync %s: %w", subtitlePath, err)
	}
	if err := fileutil.EnsureNonEmpty(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync output: %w", err)
	}
	if err := os.Rename(tmpPath, subtitlePath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace synced subtitle: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("subtitle timing synchronized",
			logging.String(logging.FieldEventType, "subtitle_synced"),
			logging.String("video_path", videoPath),
			logging.String("subtitle_path", subtitlePath),
		)
	}
	return nil
}

func defaultSyncRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
