// Package publisher records notes in the target ledger.
//
// This package enables litesync to:
// - Post one note at a time to the ledger gateway and wait for confirmation
// - Preview a pass without touching the ledger (dry run)
package publisher

import (
	"context"
	"fmt"

	"github.com/gauthierbraillon/litesync/internal/delta"
)

// Confirmation identifies a note the target has durably recorded.
type Confirmation struct {
	ID        string `json:"noteId"`
	Reference string `json:"transactionHash"`
}

// Publisher records a single note.
type Publisher interface {
	Publish(ctx context.Context, note delta.Note) (Confirmation, error)
}

// PublishError reports a note the target rejected or failed to confirm.
type PublishError struct {
	Title      string
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("publish %q: HTTP %d: %v", e.Title, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("publish %q: %v", e.Title, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
