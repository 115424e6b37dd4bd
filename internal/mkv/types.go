package mkv

import (
	"errors"
	"strings"
)

// Sentinel errors for container metadata operations.
var (
	ErrInspection    = errors.New("container inspection failed")
	ErrExternalTool  = errors.New("external tool error")
	ErrTrackNotFound = errors.New("track not found")
	ErrVerification  = errors.New("post-edit verification failed")
)

// TrackType discriminates the three stream kinds mkvmerge reports.
type TrackType string

const (
	TrackVideo     TrackType = "video"
	TrackAudio     TrackType = "audio"
	TrackSubtitles TrackType = "subtitles"
)

// Track is one media stream inside a container snapshot.
type Track struct {
	// ID is the container-order index. It is only valid for the snapshot it
	// was read from; edits renumber it.
	ID int
	// UID is the stable identifier assigned at container creation.
	UID      uint64
	Type     TrackType
	Language string
	Default  bool
	Forced   bool
	Name     string
}

// NameContains reports whether the track's display name contains the given
// marker, case-insensitively.
func (t Track) NameContains(marker string) bool {
	return strings.Contains(strings.ToLower(t.Name), strings.ToLower(marker))
}

// mkvmerge -J output shape, reduced to the fields this tool consumes.
// UID is decoded as uint64: Go's JSON decoder parses integer fields exactly,
// so 64-bit container UIDs survive without the string-rewrite workaround
// float-based parsers need.
type identifyOutput struct {
	Tracks []identifyTrack `json:"tracks"`
}

type identifyTrack struct {
	ID         int               `json:"id"`
	Type       string            `json:"type"`
	Properties identifyTrackProp `json:"properties"`
}

type identifyTrackProp struct {
	Language     string `json:"language"`
	DefaultTrack bool   `json:"default_track"`
	ForcedTrack  bool   `json:"forced_track"`
	UID          uint64 `json:"uid"`
	TrackName    string `json:"track_name"`
}

func (it identifyTrack) toTrack() Track {
	return Track{
		ID:       it.ID,
		UID:      it.Properties.UID,
		Type:     TrackType(it.Type),
		Language: strings.ToLower(strings.TrimSpace(it.Properties.Language)),
		Default:  it.Properties.DefaultTrack,
		Forced:   it.Properties.ForcedTrack,
		Name:     it.Properties.TrackName,
	}
}
