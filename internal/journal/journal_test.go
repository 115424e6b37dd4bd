package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndCompleted(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	done, err := j.Completed(ctx, "/library/movie.mkv", "Persian")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if done {
		t.Error("empty journal should report not completed")
	}

	entry := Entry{
		JobID:            "job-1",
		VideoPath:        "/library/movie.mkv",
		SubtitlePath:     "/library/movie.srt",
		SubtitleLanguage: "Persian",
		AudioLanguage:    "Persian",
		State:            StateDone,
	}
	if err := j.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	done, err = j.Completed(ctx, "/library/movie.mkv", "Persian")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if !done {
		t.Error("recorded done job should report completed")
	}

	// Different language for the same video is a different pair.
	done, err = j.Completed(ctx, "/library/movie.mkv", "English")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if done {
		t.Error("other language should not report completed")
	}
}

func TestFailedJobsAreRetried(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	entry := Entry{
		JobID:            "job-1",
		VideoPath:        "/library/movie.mkv",
		SubtitlePath:     "/library/movie.srt",
		SubtitleLanguage: "Persian",
		AudioLanguage:    "Persian",
		State:            StateFailed,
		ErrorMessage:     "mkvmerge exited 2",
	}
	if err := j.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	done, err := j.Completed(ctx, "/library/movie.mkv", "Persian")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if done {
		t.Error("failed job must not count as completed")
	}

	// A later successful run replaces the failed row.
	entry.State = StateDone
	entry.ErrorMessage = ""
	entry.JobID = "job-2"
	if err := j.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	done, err = j.Completed(ctx, "/library/movie.mkv", "Persian")
	if err != nil {
		t.Fatalf("Completed: %v", err)
	}
	if !done {
		t.Error("replaced row should report completed")
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("upsert should keep one row per pair, got %d", len(entries))
	}
	if entries[0].JobID != "job-2" {
		t.Errorf("row not replaced: %+v", entries[0])
	}
}

func TestRecentOrdering(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, video := range []string{"/a.mkv", "/b.mkv", "/c.mkv"} {
		err := j.Record(ctx, Entry{
			JobID:            video,
			VideoPath:        video,
			SubtitlePath:     video + ".srt",
			SubtitleLanguage: "Persian",
			AudioLanguage:    "Persian",
			State:            StateDone,
			CompletedAt:      base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].VideoPath != "/c.mkv" || entries[1].VideoPath != "/b.mkv" {
		t.Errorf("unexpected ordering: %+v", entries)
	}
}

func TestReopenExistingJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Record(context.Background(), Entry{
		JobID: "job-1", VideoPath: "/a.mkv", SubtitlePath: "/a.srt",
		SubtitleLanguage: "Persian", AudioLanguage: "Persian", State: StateDone,
	}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	done, err := reopened.Completed(context.Background(), "/a.mkv", "Persian")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("entry lost across reopen")
	}
}
