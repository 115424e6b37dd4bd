package mkv

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"subforge/internal/logging"
)

// FlagEdit describes one track flag mutation. The name is always written
// alongside the flags: promotion to default sets a "Forced" marker name,
// demotion clears the name, so stale markers never outlive the flags they
// described.
type FlagEdit struct {
	UID     uint64
	Default bool
	Forced  bool
	Name    string
}

// SetTrackFlags applies a flag edit through mkvpropedit, addressing the track
// by UID. The UID is confirmed to exist immediately before the edit; a UID
// that vanished between inspections is ErrTrackNotFound, never a silent edit
// of whatever track now occupies the old position.
func (t *Tool) SetTrackFlags(ctx context.Context, path string, edit FlagEdit) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: empty container path", ErrExternalTool)
	}

	id, found, err := t.ResolveTrackID(ctx, path, edit.UID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: uid %d in %s", ErrTrackNotFound, edit.UID, path)
	}

	args := []string{
		path,
		"--edit", "track:=" + strconv.FormatUint(edit.UID, 10),
		"--set", "flag-default=" + flagValue(edit.Default),
		"--set", "flag-forced=" + flagValue(edit.Forced),
		"--set", "name=" + edit.Name,
	}

	if t.logger != nil {
		t.logger.Debug("editing track flags",
			logging.String("path", path),
			logging.Uint64("uid", edit.UID),
			logging.Int("resolved_id", id),
			logging.Bool("default", edit.Default),
			logging.Bool("forced", edit.Forced),
			logging.String("name", edit.Name),
		)
	}

	if _, err := t.Runner()(ctx, t.propeditBinary, args...); err != nil {
		return fmt.Errorf("edit track uid %d in %s: %w", edit.UID, path, err)
	}
	return nil
}

// VerifyTrackFlags re-inspects the container and confirms the track's flags
// read back as intended. Any other result is ErrVerification; the caller
// decides whether the whole job is retried, this layer never retries.
func (t *Tool) VerifyTrackFlags(ctx context.Context, path string, uid uint64, wantDefault, wantForced bool) error {
	track, err := t.TrackByUID(ctx, path, uid)
	if err != nil {
		return err
	}
	if track.Default != wantDefault || track.Forced != wantForced {
		return fmt.Errorf("%w: uid %d has default=%t forced=%t, want default=%t forced=%t",
			ErrVerification, uid, track.Default, track.Forced, wantDefault, wantForced)
	}
	return nil
}

func flagValue(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
