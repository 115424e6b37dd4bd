package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; mismatched databases are rejected rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("journal schema version mismatch")

// State values recorded per job.
const (
	StateDone   = "done"
	StateFailed = "failed"
)

// Entry is one processed-job record.
type Entry struct {
	JobID            string
	VideoPath        string
	SubtitlePath     string
	SubtitleLanguage string
	AudioLanguage    string
	State            string
	ErrorMessage     string
	CompletedAt      time.Time
}

// Journal manages the processing ledger backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := j.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

// Record upserts the outcome for a (video, subtitle language) pair.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	completedAt := entry.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO processed_jobs (
            job_id, video_path, subtitle_path, subtitle_language,
            audio_language, state, error_message, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (video_path, subtitle_language) DO UPDATE SET
            job_id = excluded.job_id,
            subtitle_path = excluded.subtitle_path,
            audio_language = excluded.audio_language,
            state = excluded.state,
            error_message = excluded.error_message,
            completed_at = excluded.completed_at`,
		entry.JobID,
		entry.VideoPath,
		entry.SubtitlePath,
		entry.SubtitleLanguage,
		entry.AudioLanguage,
		entry.State,
		nullableString(entry.ErrorMessage),
		completedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// Completed reports whether the pair already finished successfully. Failed
// runs do not count: the next batch run retries them.
func (j *Journal) Completed(ctx context.Context, videoPath, subtitleLanguage string) (bool, error) {
	var state string
	err := j.db.QueryRowContext(ctx,
		"SELECT state FROM processed_jobs WHERE video_path = ? AND subtitle_language = ?",
		videoPath, subtitleLanguage,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query job: %w", err)
	}
	return state == StateDone, nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT job_id, video_path, subtitle_path, subtitle_language,
            audio_language, state, error_message, completed_at
        FROM processed_jobs ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var errorMessage sql.NullString
		var completedAt string
		if err := rows.Scan(
			&entry.JobID,
			&entry.VideoPath,
			&entry.SubtitlePath,
			&entry.SubtitleLanguage,
			&entry.AudioLanguage,
			&entry.State,
			&errorMessage,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		entry.ErrorMessage = errorMessage.String
		if parsed, parseErr := time.Parse(time.RFC3339Nano, completedAt); parseErr == nil {
			entry.CompletedAt = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
