// Package syncer drives one synchronization pass from the feed to the ledger.
//
// A pass loads the checkpoint, fetches the feed snapshot, selects the entries
// published after the checkpoint and publishes them one at a time, oldest
// first. The checkpoint advances only on a confirmed publish and the pass
// stops at the first failure, so persisted progress never gets ahead of the
// ledger and no later note is published before an earlier one.
//
// Passes are not safe to run concurrently against the same checkpoint; the
// caller's scheduler must not overlap invocations.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
	"github.com/gauthierbraillon/litesync/internal/delta"
	"github.com/gauthierbraillon/litesync/internal/feed"
	"github.com/gauthierbraillon/litesync/internal/publisher"
)

// Source supplies the current feed snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]feed.Entry, error)
}

// Progress loads and saves the checkpoint.
type Progress interface {
	Load(ctx context.Context) (checkpoint.Checkpoint, error)
	Save(ctx context.Context, cp checkpoint.Checkpoint) error
}

// Options configures a Syncer.
type Options struct {
	// DryRun skips persisting the checkpoint.
	DryRun bool
}

// Syncer runs synchronization passes.
type Syncer struct {
	source    Source
	progress  Progress
	publisher publisher.Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
	newRunID  func() string
}

// New creates a Syncer.
func New(source Source, progress Progress, pub publisher.Publisher, logger *slog.Logger, opts Options) *Syncer {
	return &Syncer{
		source:    source,
		progress:  progress,
		publisher: pub,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Run executes one pass. Failures are reported in the returned Report; Run
// itself never fails.
func (s *Syncer) Run(ctx context.Context) *Report {
	report := &Report{RunID: s.newRunID(), StartedAt: s.now()}
	log := s.logger.With("run_id", report.RunID)
	defer func() {
		report.Duration = s.now().Sub(report.StartedAt)
		log.Info("sync finished",
			"outcome", report.Outcome,
			"found", report.Found,
			"pending", report.Pending,
			"published", report.PublishedCount(),
			"checkpoint", report.After.LastSyncedAt,
		)
	}()

	// Loading
	cp, err := s.progress.Load(ctx)
	if err != nil {
		report.LoadErr = err
		cp = checkpoint.Default()
		log.Warn("failed to load checkpoint, starting from the beginning", "error", err)
	} else if cp.IsOrigin() {
		log.Info("no checkpoint found, starting from the beginning")
	} else {
		log.Info("checkpoint loaded", "last_synced_at", cp.LastSyncedAt)
	}
	report.Before = cp
	report.After = cp

	// Fetching
	entries, err := s.source.Fetch(ctx)
	if err != nil {
		report.Outcome = OutcomeFetchFailed
		report.StoppedIn = PhaseFetching
		report.Err = err
		log.Error("failed to collect feed", "error", err)
		return report
	}
	report.Found = len(entries)
	log.Info("feed collected", "count", len(entries))

	// Selecting
	notes, err := delta.Select(entries, cp.LastSyncedAt)
	if err != nil {
		report.Outcome = OutcomeSelectFailed
		report.StoppedIn = PhaseSelecting
		report.Err = err
		log.Error("feed contains an unusable entry", "error", err)
		return report
	}
	report.Pending = len(notes)
	log.Info("feed filtered", "pending", len(notes))

	// Publishing
	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			report.StoppedIn = PhasePublishing
			report.Err = err
			log.Warn("sync interrupted", "error", err)
			break
		}

		report.Attempted++
		conf, err := s.publisher.Publish(ctx, note)
		if err != nil {
			report.StoppedIn = PhasePublishing
			report.Err = err
			log.Warn("failed to publish note, stopping",
				"title", note.Title,
				"published_at", note.PublishedAt,
				"error", err,
			)
			break
		}

		cp = cp.Advance(note.PublishedAt, conf.ID, conf.Reference)
		report.After = cp
		report.Published = append(report.Published, Published{
			Title:        note.Title,
			PublishedAt:  note.PublishedAt,
			Confirmation: conf,
		})
		log.Info("note published",
			"title", note.Title,
			"note_id", conf.ID,
			"reference", conf.Reference,
		)
	}
	report.Outcome = publishOutcome(report)

	// Persisting
	if s.opts.DryRun {
		log.Info("dry run, checkpoint not saved", "checkpoint", cp.LastSyncedAt)
		return report
	}
	// Progress already confirmed upstream must be recorded even if the
	// pass was cancelled.
	if err := s.progress.Save(context.WithoutCancel(ctx), cp); err != nil {
		report.SaveErr = err
		if report.StoppedIn == "" {
			report.StoppedIn = PhasePersisting
		}
		log.Warn("failed to save checkpoint, confirmed notes may be published again next run",
			"checkpoint", cp.LastSyncedAt,
			"error", err,
		)
		return report
	}
	report.Saved = true
	log.Info("checkpoint saved", "last_synced_at", cp.LastSyncedAt)
	return report
}

func publishOutcome(r *Report) Outcome {
	switch {
	case r.Err == nil && r.Pending == 0:
		return OutcomeNoOp
	case r.Err == nil:
		return OutcomeSynced
	case len(r.Published) > 0:
		return OutcomePartial
	default:
		return OutcomePublishFailed
	}
}

// StopReason classifies the error that ended a pass for display.
func StopReason(err error) string {
	var (
		fetchErr *feed.FetchError
		normErr  *delta.NormalizationError
		pubErr   *publisher.PublishError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "feed unavailable"
	case errors.As(err, &normErr):
		return "unusable feed entry"
	case errors.As(err, &pubErr):
		return "publish failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	default:
		return "error"
	}
}
