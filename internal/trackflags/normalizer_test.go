package trackflags

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

type fakeTrack struct {
	id     int
	uid    uint64
	typ    string
	lang   string
	def    bool
	forced bool
	name   string
}

// fakeContainer answers identify calls from mutable track state and applies
// propedit flag edits to it, so post-edit verification observes real effects.
type fakeContainer struct {
	t         *testing.T
	tracks    []fakeTrack
	editCalls int
	// failEdits makes propedit exit zero without applying anything, which is
	// exactly what a verification failure looks like.
	failEdits bool
}

func (f *fakeContainer) renderIdentify() []byte {
	entries := make([]string, 0, len(f.tracks))
	for _, tr := range f.tracks {
		entries = append(entries, fmt.Sprintf(
			`{"id": %d, "type": %q, "properties": {"language": %q, "default_track": %t, "forced_track": %t, "uid": %d, "track_name": %q}}`,
			tr.id, tr.typ, tr.lang, tr.def, tr.forced, tr.uid, tr.name))
	}
	return []byte(`{"tracks": [` + strings.Join(entries, ",") + `]}`)
}

func (f *fakeContainer) runner() mkv.CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == mkv.DefaultMergeBinary {
			return f.renderIdentify(), nil
		}
		f.editCalls++
		if f.failEdits {
			return nil, nil
		}
		return nil, f.applyEdit(args)
	}
}

func (f *fakeContainer) applyEdit(args []string) error {
	var uid uint64
	var def, forced bool
	var trackName string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--edit":
			i++
			raw := strings.TrimPrefix(args[i], "track:=")
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				f.t.Fatalf("bad edit selector %q", args[i])
			}
			uid = parsed
		case "--set":
			i++
			key, value, _ := strings.Cut(args[i], "=")
			switch key {
			case "flag-default":
				def = value == "1"
			case "flag-forced":
				forced = value == "1"
			case "name":
				trackName = value
			}
		}
	}
	for idx := range f.tracks {
		if f.tracks[idx].uid == uid {
			f.tracks[idx].def = def
			f.tracks[idx].forced = forced
			f.tracks[idx].name = trackName
			return nil
		}
	}
	return fmt.Errorf("%w: uid %d", mkv.ErrTrackNotFound, uid)
}

func (f *fakeContainer) track(uid uint64) fakeTrack {
	for _, tr := range f.tracks {
		if tr.uid == uid {
			return tr
		}
	}
	f.t.Fatalf("no track with uid %d", uid)
	return fakeTrack{}
}

func newTestNormalizer(fake *fakeContainer) *Normalizer {
	tool := mkv.NewTool(logging.NewNop()).WithCommandRunner(fake.runner())
	return NewNormalizer(logging.NewNop(), tool)
}

func TestAdjustSubtitleFlagsIdempotent(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "video", lang: "und"},
		{id: 1, uid: 2, typ: "audio", lang: "per", def: true, forced: true},
		{id: 2, uid: 3, typ: "subtitles", lang: "per", def: true, forced: true, name: "Forced"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustSubtitleFlags: %v", err)
	}
	if fake.editCalls != 0 {
		t.Errorf("already-canonical container triggered %d edit calls, want 0", fake.editCalls)
	}
}

func TestAdjustSubtitleFlagsDemotesStrayDefault(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "video", lang: "und"},
		{id: 1, uid: 2, typ: "audio", lang: "eng"},
		{id: 2, uid: 3, typ: "subtitles", lang: "eng", def: true},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustSubtitleFlags: %v", err)
	}
	stray := fake.track(3)
	if stray.def || stray.forced {
		t.Errorf("stray subtitle still default=%t forced=%t", stray.def, stray.forced)
	}
	if stray.name != "" {
		t.Errorf("demotion should clear name, got %q", stray.name)
	}
	// No other track's flags changed.
	if audio := fake.track(2); audio.def || audio.forced {
		t.Errorf("audio track flags changed: %+v", audio)
	}
}

func TestAdjustSubtitleFlagsPromotesAndDemotes(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "subtitles", lang: "per"},
		{id: 1, uid: 2, typ: "subtitles", lang: "eng", def: true, forced: true, name: "Forced"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustSubtitleFlags: %v", err)
	}
	target := fake.track(1)
	if !target.def || !target.forced {
		t.Errorf("target subtitle not promoted: %+v", target)
	}
	if target.name != "Forced" {
		t.Errorf("promotion should set marker name, got %q", target.name)
	}
	stray := fake.track(2)
	if stray.def || stray.forced || stray.name != "" {
		t.Errorf("stray subtitle not fully demoted: %+v", stray)
	}
}

func TestAdjustSubtitleFlagsDemotesByNameMarker(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "subtitles", lang: "per", def: true, forced: true},
		{id: 1, uid: 2, typ: "subtitles", lang: "eng", name: "English (forced)"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustSubtitleFlags: %v", err)
	}
	marked := fake.track(2)
	if marked.name != "" {
		t.Errorf("name-marked subtitle should have name cleared, got %q", marked.name)
	}
}

func TestAdjustSubtitleFlagsNoSubtitleTracks(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "video", lang: "und"},
		{id: 1, uid: 2, typ: "audio", lang: "eng"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("zero subtitle tracks must succeed trivially: %v", err)
	}
	if fake.editCalls != 0 {
		t.Errorf("no-op normalization issued %d edits", fake.editCalls)
	}
}

func TestAdjustSubtitleFlagsUnknownLanguage(t *testing.T) {
	fake := &fakeContainer{t: t}
	n := newTestNormalizer(fake)
	err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "klingon")
	if !errors.Is(err, language.ErrUnknown) {
		t.Errorf("error = %v, want language.ErrUnknown", err)
	}
}

func TestAdjustSubtitleFlagsVerificationFailure(t *testing.T) {
	fake := &fakeContainer{t: t, failEdits: true, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "subtitles", lang: "per"},
	}}
	n := newTestNormalizer(fake)

	err := n.AdjustSubtitleFlags(context.Background(), "/library/movie.mkv", "Persian")
	if !errors.Is(err, mkv.ErrVerification) {
		t.Errorf("error = %v, want ErrVerification", err)
	}
}

func TestAdjustAudioFlagsPromotesTarget(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "eng", def: true},
		{id: 1, uid: 2, typ: "audio", lang: "per"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustAudioFlags: %v", err)
	}
	target := fake.track(2)
	if !target.def || !target.forced {
		t.Errorf("target audio not promoted: %+v", target)
	}
	stray := fake.track(1)
	if stray.def || stray.forced {
		t.Errorf("stray default audio not demoted: %+v", stray)
	}
}

func TestAdjustAudioFlagsNoMatchStillDemotes(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "eng", def: true},
	}}
	n := newTestNormalizer(fake)

	err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian")
	if !errors.Is(err, ErrNoAudioMatch) {
		t.Fatalf("error = %v, want ErrNoAudioMatch", err)
	}
	// The English track was default, so it is reset even though the
	// adjustment as a whole fails.
	stray := fake.track(1)
	if stray.def || stray.forced {
		t.Errorf("non-matching default audio not reset: %+v", stray)
	}
}

func TestAdjustAudioFlagsZeroAudioTracks(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "video", lang: "und"},
	}}
	n := newTestNormalizer(fake)

	err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian")
	if !errors.Is(err, ErrNoAudioTracks) {
		t.Errorf("error = %v, want ErrNoAudioTracks", err)
	}
}

func TestAdjustAudioFlagsCommentaryNeverPromoted(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "per", name: "Director Commentary"},
		{id: 1, uid: 2, typ: "audio", lang: "per"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustAudioFlags: %v", err)
	}
	commentary := fake.track(1)
	if commentary.def || commentary.forced {
		t.Errorf("commentary promoted: %+v", commentary)
	}
	if commentary.name != "Director Commentary" {
		t.Errorf("matching commentary must be left alone, name = %q", commentary.name)
	}
	if regular := fake.track(2); !regular.def || !regular.forced {
		t.Errorf("regular target audio not promoted: %+v", regular)
	}
}

func TestAdjustAudioFlagsNonMatchingCommentaryDemoted(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "eng", def: true, name: "Commentary"},
		{id: 1, uid: 2, typ: "audio", lang: "per"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustAudioFlags: %v", err)
	}
	commentary := fake.track(1)
	if commentary.def || commentary.forced {
		t.Errorf("non-matching default commentary not demoted: %+v", commentary)
	}
}

func TestAdjustAudioFlagsIdempotent(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "per", def: true, forced: true},
		{id: 1, uid: 2, typ: "audio", lang: "eng"},
	}}
	n := newTestNormalizer(fake)

	if err := n.AdjustAudioFlags(context.Background(), "/library/movie.mkv", "Persian"); err != nil {
		t.Fatalf("AdjustAudioFlags: %v", err)
	}
	if fake.editCalls != 0 {
		t.Errorf("canonical audio set triggered %d edits, want 0", fake.editCalls)
	}
}

func TestNormalizeRunsBothPasses(t *testing.T) {
	fake := &fakeContainer{t: t, tracks: []fakeTrack{
		{id: 0, uid: 1, typ: "audio", lang: "per"},
		{id: 1, uid: 2, typ: "subtitles", lang: "per"},
	}}
	n := newTestNormalizer(fake)

	if err := n.Normalize(context.Background(), "/library/movie.mkv", "Persian", "Persian"); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if audio := fake.track(1); !audio.def || !audio.forced {
		t.Errorf("audio not promoted: %+v", audio)
	}
	if sub := fake.track(2); !sub.def || !sub.forced {
		t.Errorf("subtitle not promoted: %+v", sub)
	}
}
