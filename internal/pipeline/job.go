package pipeline

import (
	"github.com/google/uuid"
)

// State tracks how far a job has progressed through the stages.
type State string

const (
	StatePending       State = "pending"
	StateConverted     State = "converted"
	StateCleaned       State = "cleaned"
	StateSynced        State = "synced"
	StateMerged        State = "merged"
	StateFlagsAdjusted State = "flags_adjusted"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Options selects which optional stages run for a job. Merging and flag
// normalization always run; the subtitle preparation stages can be skipped.
type Options struct {
	Convert          bool
	Clean            bool
	Sync             bool
	KeepSubtitleFile bool
}

// DefaultOptions enables every preparation stage and deletes the sidecar
// subtitle after a successful merge.
func DefaultOptions() Options {
	return Options{Convert: true, Clean: true, Sync: true}
}

// Job is one video container plus the subtitle sidecar to fold into it.
// SubtitlePath may be empty, in which case only flag normalization runs.
type Job struct {
	ID               string
	VideoPath        string
	SubtitlePath     string
	SubtitleLanguage string
	AudioLanguage    string
	Options          Options

	State State
	Err   error
}

// NewJob assigns a fresh identifier and starts the job in StatePending.
func NewJob(videoPath, subtitlePath, subtitleLanguage, audioLanguage string, opts Options) *Job {
	return &Job{
		ID:               uuid.NewString(),
		VideoPath:        videoPath,
		SubtitlePath:     subtitlePath,
		SubtitleLanguage: subtitleLanguage,
		AudioLanguage:    audioLanguage,
		Options:          opts,
		State:            StatePending,
	}
}

func (j *Job) fail(err error) error {
	j.State = StateFailed
	j.Err = err
	return err
}
