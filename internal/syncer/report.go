package syncer

import (
	"time"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
	"github.com/gauthierbraillon/litesync/internal/publisher"
)

// Phase is a step of a pass.
type Phase string

const (
	PhaseFetching   Phase = "fetching"
	PhaseSelecting  Phase = "selecting"
	PhasePublishing Phase = "publishing"
	PhasePersisting Phase = "persisting"
)

// Outcome classifies how a pass ended.
type Outcome string

const (
	// OutcomeSynced means every pending note was published.
	OutcomeSynced Outcome = "synced"
	// OutcomeNoOp means there was nothing new to publish.
	OutcomeNoOp Outcome = "no-op"
	// OutcomePartial means some notes were confirmed before the pass stopped.
	OutcomePartial Outcome = "partial"
	// OutcomePublishFailed means the first pending note failed; nothing was confirmed.
	OutcomePublishFailed Outcome = "publish-failed"
	// OutcomeFetchFailed means the feed could not be retrieved.
	OutcomeFetchFailed Outcome = "fetch-failed"
	// OutcomeSelectFailed means the snapshot contained an unusable entry.
	OutcomeSelectFailed Outcome = "select-failed"
)

// Exit statuses for a pass.
const (
	ExitOK         = 0
	ExitFailed     = 1
	ExitPartial    = 2
	ExitSaveFailed = 3
)

// Published records one confirmed note.
type Published struct {
	Title        string
	PublishedAt  time.Time
	Confirmation publisher.Confirmation
}

// Report summarizes a single pass.
type Report struct {
	RunID   string
	Outcome Outcome
	// StoppedIn is the phase that ended the pass early, empty when it ran to completion.
	StoppedIn Phase

	Found     int
	Pending   int
	Attempted int
	Published []Published

	Before checkpoint.Checkpoint
	After  checkpoint.Checkpoint

	// Err is the stopping condition: fetch, normalization or publish failure.
	Err error
	// LoadErr is set when persisted progress could not be read and the default was used.
	LoadErr error
	// SaveErr is set when progress could not be persisted; the next pass may repeat notes.
	SaveErr error
	// Saved reports whether the checkpoint was written.
	Saved bool

	StartedAt time.Time
	Duration  time.Duration
}

// PublishedCount returns the number of confirmed notes.
func (r *Report) PublishedCount() int {
	return len(r.Published)
}

// Skipped returns the number of pending notes never attempted.
func (r *Report) Skipped() int {
	return r.Pending - r.Attempted
}

// ExitCode maps the outcome to a process exit status.
func (r *Report) ExitCode() int {
	switch r.Outcome {
	case OutcomeSynced, OutcomeNoOp:
		if r.SaveErr != nil {
			return ExitSaveFailed
		}
		return ExitOK
	case OutcomePartial:
		return ExitPartial
	default:
		return ExitFailed
	}
}
