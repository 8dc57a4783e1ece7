package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gauthierbraillon/litesync/internal/delta"
)

// DryRun logs notes instead of publishing them.
type DryRun struct {
	logger *slog.Logger
	count  int
}

// NewDryRun creates a dry-run publisher that logs to logger.
func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{logger: logger}
}

// Publish logs note and returns a synthetic confirmation.
func (d *DryRun) Publish(ctx context.Context, note delta.Note) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, &PublishError{Title: note.Title, Err: err}
	}
	d.count++
	d.logger.Info("dry run: would publish note",
		"title", note.Title,
		"published_at", note.PublishedAt,
		"content_bytes", len(note.Content),
	)
	return Confirmation{ID: fmt.Sprintf("dry-run-%d", d.count)}, nil
}
