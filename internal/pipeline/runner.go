package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"subforge/internal/journal"
	"subforge/internal/logging"
	"subforge/internal/remux"
)

// ErrLocked indicates another process is already working on the same
// container.
var ErrLocked = errors.New("pipeline: file locked by another process")

const lockRetryDelay = 250 * time.Millisecond

// Converter reencodes a subtitle file to UTF-8 in place.
type Converter interface {
	Convert(ctx context.Context, path string) (bool, error)
}

// Cleaner strips advertisement cues from a subtitle file in place.
type Cleaner interface {
	Clean(ctx context.Context, path string) error
}

// Syncer aligns subtitle timing against the video's audio track.
type Syncer interface {
	Sync(ctx context.Context, videoPath, subtitlePath string) error
}

// Merger folds a subtitle sidecar into the container.
type Merger interface {
	MergeSubtitle(ctx context.Context, req remux.MergeRequest) error
}

// FlagNormalizer rewrites default/forced track flags inside the container.
type FlagNormalizer interface {
	Normalize(ctx context.Context, containerPath, subtitleLanguage, audioLanguage string) error
}

// Ledger records finished jobs so reruns can skip them. Implemented by
// journal.Journal; nil disables the skip behavior.
type Ledger interface {
	Completed(ctx context.Context, videoPath, subtitleLanguage string) (bool, error)
	Record(ctx context.Context, entry journal.Entry) error
}

// Runner drives jobs through the stages in order, stopping a job at its
// first failure.
type Runner struct {
	logger     *slog.Logger
	converter  Converter
	cleaner    Cleaner
	syncer     Syncer
	merger     Merger
	normalizer FlagNormalizer
	ledger     Ledger
	force      bool
}

// NewRunner wires the stage implementations together. ledger may be nil.
func NewRunner(logger *slog.Logger, converter Converter, cleaner Cleaner, syncer Syncer, merger Merger, normalizer FlagNormalizer, ledger Ledger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		converter:  converter,
		cleaner:    cleaner,
		syncer:     syncer,
		merger:     merger,
		normalizer: normalizer,
		ledger:     ledger,
	}
}

// WithForce makes the runner reprocess files the ledger already marks done.
func (r *Runner) WithForce(force bool) *Runner {
	r.force = force
	return r
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
}

// ProcessAll runs every job, continuing past individual failures. The
// returned error is non-nil only when the context is cancelled.
func (r *Runner) ProcessAll(ctx context.Context, jobs []*Job) (Summary, error) {
	var summary Summary
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		skipped, err := r.Process(ctx, job)
		switch {
		case err != nil:
			summary.Failed++
			r.logger.Error("job failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String(logging.FieldPath, job.VideoPath),
				logging.Error(err))
		case skipped:
			summary.Skipped++
		default:
			summary.Processed++
		}
	}
	return summary, nil
}

// Process runs one job through the stages. It reports skipped=true when the
// ledger already marks the pair as done and force is off.
func (r *Runner) Process(ctx context.Context, job *Job) (skipped bool, err error) {
	if r.ledger != nil && !r.force {
		done, err := r.ledger.Completed(ctx, job.VideoPath, job.SubtitleLanguage)
		if err != nil {
			return false, job.fail(fmt.Errorf("check journal: %w", err))
		}
		if done {
			r.logger.Debug("already processed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String(logging.FieldPath, job.VideoPath))
			return true, nil
		}
	}

	lock := flock.New(job.VideoPath + ".lock")
	locked, lockErr := lock.TryLockContext(ctx, lockRetryDelay)
	if lockErr != nil {
		return false, r.finish(ctx, job, fmt.Errorf("acquire lock: %w", lockErr))
	}
	if !locked {
		return false, r.finish(ctx, job, ErrLocked)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	return false, r.finish(ctx, job, r.runStages(ctx, job))
}

func (r *Runner) runStages(ctx context.Context, job *Job) error {
	if job.SubtitlePath != "" {
		if job.Options.Convert {
			changed, err := r.converter.Convert(ctx, job.SubtitlePath)
			if err != nil {
				return fmt.Errorf("convert subtitle: %w", err)
			}
			r.logStage(job, StateConverted, logging.Bool("changed", changed))
		}
		job.State = StateConverted

		if job.Options.Clean {
			if err := r.cleaner.Clean(ctx, job.SubtitlePath); err != nil {
				return fmt.Errorf("clean subtitle: %w", err)
			}
			r.logStage(job, StateCleaned)
		}
		job.State = StateCleaned

		if job.Options.Sync {
			if err := r.syncer.Sync(ctx, job.VideoPath, job.SubtitlePath); err != nil {
				return fmt.Errorf("sync subtitle: %w", err)
			}
			r.logStage(job, StateSynced)
		}
		job.State = StateSynced

		err := r.merger.MergeSubtitle(ctx, remux.MergeRequest{
			ContainerPath:    job.VideoPath,
			SubtitlePath:     job.SubtitlePath,
			Language:         job.SubtitleLanguage,
			KeepSubtitleFile: job.Options.KeepSubtitleFile,
		})
		if err != nil {
			return fmt.Errorf("merge subtitle: %w", err)
		}
		job.State = StateMerged
		r.logStage(job, StateMerged)
	}

	if err := r.normalizer.Normalize(ctx, job.VideoPath, job.SubtitleLanguage, job.AudioLanguage); err != nil {
		return fmt.Errorf("normalize flags: %w", err)
	}
	job.State = StateFlagsAdjusted
	r.logStage(job, StateFlagsAdjusted)

	job.State = StateDone
	return nil
}

// finish records the outcome in the ledger and stamps the job state.
func (r *Runner) finish(ctx context.Context, job *Job, stageErr error) error {
	entry := journal.Entry{
		JobID:            job.ID,
		VideoPath:        job.VideoPath,
		SubtitlePath:     job.SubtitlePath,
		SubtitleLanguage: job.SubtitleLanguage,
		AudioLanguage:    job.AudioLanguage,
		State:            journal.StateDone,
	}
	if stageErr != nil {
		entry.State = journal.StateFailed
		entry.ErrorMessage = stageErr.Error()
	}
	if r.ledger != nil {
		if recordErr := r.ledger.Record(ctx, entry); recordErr != nil {
			r.logger.Warn("journal write failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(recordErr))
		}
	}
	if stageErr != nil {
		return job.fail(stageErr)
	}
	job.State = StateDone
	r.logger.Info("job complete",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldPath, job.VideoPath))
	return nil
}

func (r *Runner) logStage(job *Job, state State, extra ...logging.Attr) {
	attrs := []logging.Attr{
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldStage, string(state)),
		logging.String(logging.FieldPath, job.VideoPath),
	}
	attrs = append(attrs, extra...)
	r.logger.Debug("stage complete", logging.Args(attrs...)...)
}
