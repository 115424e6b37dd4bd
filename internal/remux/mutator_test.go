package remux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/mkv"
)

const (
	persianSubFixture = `{"tracks": [
      {"id": 0, "type": "video", "properties": {"language": "und", "uid": 1}},
      {"id": 1, "type": "audio", "properties": {"language": "eng", "default_track": true, "uid": 2}},
      {"id": 2, "type": "subtitles", "properties": {"language": "per", "default_track": true, "forced_track": true, "uid": 3}}
    ]}`
	noSubFixture = `{"tracks": [
      {"id": 0, "type": "video", "properties": {"language": "und", "uid": 1}},
      {"id": 1, "type": "audio", "properties": {"language": "eng", "default_track": true, "uid": 2}}
    ]}`
	mergedFixture = `{"tracks": [
      {"id": 0, "type": "video", "properties": {"language": "und", "uid": 1}},
      {"id": 1, "type": "audio", "properties": {"language": "eng", "default_track": true, "uid": 2}},
      {"id": 2, "type": "subtitles", "properties": {"language": "per", "default_track": true, "forced_track": true, "uid": 9}}
    ]}`
)

// fakeMux simulates mkvmerge: identify calls are answered from a per-path
// fixture map, mux calls write the requested output file.
type fakeMux struct {
	t        *testing.T
	identify map[string]string
	muxErr   error
	muxOut   map[string]string // output path -> identify fixture installed after mux
	muxCalls [][]string
}

func (f *fakeMux) runner() mkv.CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if len(args) == 2 && args[0] == "-J" {
			fixture, ok := f.identify[args[1]]
			if !ok {
				f.t.Fatalf("identify of unexpected path %q", args[1])
			}
			return []byte(fixture), nil
		}
		f.muxCalls = append(f.muxCalls, append([]string{name}, args...))
		if f.muxErr != nil {
			return nil, f.muxErr
		}
		if len(args) < 2 || args[0] != "-o" {
			f.t.Fatalf("unexpected mux args %v", args)
		}
		outPath := args[1]
		if err := os.WriteFile(outPath, []byte("muxed output"), 0o644); err != nil {
			f.t.Fatal(err)
		}
		if fixture, ok := f.muxOut[outPath]; ok {
			f.identify[outPath] = fixture
		}
		return nil, nil
	}
}

func newTestMutator(t *testing.T, fake *fakeMux) *Mutator {
	t.Helper()
	tool := mkv.NewTool(logging.NewNop()).WithCommandRunner(fake.runner())
	return NewMutator(logging.NewNop(), tool)
}

func writeContainer(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(path, []byte("original container"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRemoveNoMatchingTracksIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	fake := &fakeMux{t: t, identify: map[string]string{path: noSubFixture}}
	m := newTestMutator(t, fake)

	if err := m.RemoveTracksByLanguage(context.Background(), path, "Persian"); err != nil {
		t.Fatalf("RemoveTracksByLanguage: %v", err)
	}
	if len(fake.muxCalls) != 0 {
		t.Errorf("expected zero mux calls, got %d", len(fake.muxCalls))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "original container" {
		t.Error("container mutated despite no matching tracks")
	}
}

func TestRemoveUnknownLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	fake := &fakeMux{t: t, identify: map[string]string{path: persianSubFixture}}
	m := newTestMutator(t, fake)

	err := m.RemoveTracksByLanguage(context.Background(), path, "persian")
	if !errors.Is(err, language.ErrUnknown) {
		t.Errorf("error = %v, want language.ErrUnknown", err)
	}
}

func TestRemoveDropsMatchingSubtitles(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	tmp := removeTempPath(path)
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: persianSubFixture},
		muxOut:   map[string]string{tmp: noSubFixture},
	}
	m := newTestMutator(t, fake)

	if err := m.RemoveTracksByLanguage(context.Background(), path, "Persian"); err != nil {
		t.Fatalf("RemoveTracksByLanguage: %v", err)
	}
	if len(fake.muxCalls) != 1 {
		t.Fatalf("expected 1 mux call, got %d", len(fake.muxCalls))
	}
	call := strings.Join(fake.muxCalls[0], " ")
	if !strings.Contains(call, "-s !2") {
		t.Errorf("mux call %q missing inverse subtitle selection", call)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "muxed output" {
		t.Error("temp output was not swapped over the original")
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp file left behind after swap")
	}
}

func TestRemoveToolFailureLeavesOriginalUntouched(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: persianSubFixture},
		muxErr:   mkv.ErrExternalTool,
	}
	m := newTestMutator(t, fake)

	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	err = m.RemoveTracksByLanguage(context.Background(), path, "Persian")
	if !errors.Is(err, mkv.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		t.Error("original container was touched by a failed removal")
	}
}

func TestRemoveVerificationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	tmp := removeTempPath(path)
	// Temp output still carries the Persian track: verification must reject
	// without touching the original.
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: persianSubFixture},
		muxOut:   map[string]string{tmp: persianSubFixture},
	}
	m := newTestMutator(t, fake)

	err := m.RemoveTracksByLanguage(context.Background(), path, "Persian")
	if !errors.Is(err, mkv.ErrVerification) {
		t.Fatalf("error = %v, want ErrVerification", err)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(content) != "original container" {
		t.Error("original replaced despite failed verification")
	}
}

func TestMergeSubtitle(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	subPath := filepath.Join(dir, "movie.per.srt")
	if err := os.WriteFile(subPath, []byte("1\n00:00:01,000 --> 00:00:02,000\nsalam\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tmp := mergeTempPath(path)
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: noSubFixture},
		muxOut:   map[string]string{tmp: mergedFixture},
	}
	m := newTestMutator(t, fake)

	err := m.MergeSubtitle(context.Background(), MergeRequest{
		ContainerPath: path,
		SubtitlePath:  subPath,
		Language:      "Persian",
		TrackTitle:    "Persian",
	})
	if err != nil {
		t.Fatalf("MergeSubtitle: %v", err)
	}
	if len(fake.muxCalls) != 1 {
		t.Fatalf("expected 1 mux call, got %d", len(fake.muxCalls))
	}
	call := strings.Join(fake.muxCalls[0], " ")
	for _, want := range []string{
		"--language 0:per",
		"--track-name 0:Persian",
		"--default-track 0:yes",
		"--forced-track 0:yes",
	} {
		if !strings.Contains(call, want) {
			t.Errorf("mux call %q missing %q", call, want)
		}
	}
	if _, err := os.Stat(subPath); !os.IsNotExist(err) {
		t.Error("subtitle sidecar should be removed when KeepSubtitleFile is false")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "muxed output" {
		t.Error("merged output was not swapped over the original")
	}
}

func TestMergeDeduplicatesExistingLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	subPath := filepath.Join(dir, "movie.per.srt")
	if err := os.WriteFile(subPath, []byte("sub"), 0o644); err != nil {
		t.Fatal(err)
	}
	removeTmp := removeTempPath(path)
	mergeTmp := mergeTempPath(path)
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: persianSubFixture},
		muxOut: map[string]string{
			removeTmp: noSubFixture,
			mergeTmp:  mergedFixture,
		},
	}
	m := newTestMutator(t, fake)

	err := m.MergeSubtitle(context.Background(), MergeRequest{
		ContainerPath:    path,
		SubtitlePath:     subPath,
		Language:         "Persian",
		TrackTitle:       "Persian",
		KeepSubtitleFile: true,
	})
	if err != nil {
		t.Fatalf("MergeSubtitle: %v", err)
	}
	// One removal mux plus one merge mux: the existing Persian track is
	// dropped before the new one is added, leaving exactly one.
	if len(fake.muxCalls) != 2 {
		t.Fatalf("expected 2 mux calls (remove + merge), got %d", len(fake.muxCalls))
	}
	if !strings.Contains(strings.Join(fake.muxCalls[0], " "), "-s !") {
		t.Error("first mux call should be the language removal")
	}
	if _, err := os.Stat(subPath); err != nil {
		t.Error("subtitle sidecar should be kept when KeepSubtitleFile is true")
	}
}

func TestMergeToolFailureLeavesOriginalAndSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	subPath := filepath.Join(dir, "movie.per.srt")
	if err := os.WriteFile(subPath, []byte("sub"), 0o644); err != nil {
		t.Fatal(err)
	}
	fake := &fakeMux{
		t:        t,
		identify: map[string]string{path: noSubFixture},
		muxErr:   mkv.ErrExternalTool,
	}
	m := newTestMutator(t, fake)

	err := m.MergeSubtitle(context.Background(), MergeRequest{
		ContainerPath: path,
		SubtitlePath:  subPath,
		Language:      "Persian",
		TrackTitle:    "Persian",
	})
	if !errors.Is(err, mkv.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(content) != "original container" {
		t.Error("original container mutated by failed merge")
	}
	if _, err := os.Stat(subPath); err != nil {
		t.Error("sidecar must survive a failed merge")
	}
}

func TestMergeUnknownLanguage(t *testing.T) {
	dir := t.TempDir()
	path := writeContainer(t, dir)
	fake := &fakeMux{t: t, identify: map[string]string{path: noSubFixture}}
	m := newTestMutator(t, fake)

	err := m.MergeSubtitle(context.Background(), MergeRequest{
		ContainerPath: path,
		SubtitlePath:  filepath.Join(dir, "missing.srt"),
		Language:      "Klingon",
	})
	if !errors.Is(err, language.ErrUnknown) {
		t.Errorf("error = %v, want language.ErrUnknown", err)
	}
	if len(fake.muxCalls) != 0 {
		t.Error("no mux call expected for unknown language")
	}
}
