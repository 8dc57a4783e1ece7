// Package checkpoint persists synchronization progress between passes.
//
// A checkpoint is a single durable value: the publication time of the last
// note the target confirmed. Every feed entry published at or before that
// time is treated as already synchronized.
package checkpoint

import (
	"context"
	"fmt"
	"time"
)

// Origin is the checkpoint used on first run. It predates any parseable
// publication time.
var Origin = time.Time{}

// Checkpoint is the persisted synchronization progress.
type Checkpoint struct {
	LastSyncedAt  time.Time `json:"lastSyncedAt"`
	LastNoteID    string    `json:"lastNoteId,omitempty"`
	LastReference string    `json:"lastReference,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Default returns the first-run checkpoint.
func Default() Checkpoint {
	return Checkpoint{LastSyncedAt: Origin}
}

// IsOrigin reports whether no note has ever been confirmed.
func (c Checkpoint) IsOrigin() bool {
	return c.LastSyncedAt.Equal(Origin)
}

// Advance moves the checkpoint to a confirmed note. Progress never regresses:
// a publication time older than the current one leaves the timestamp unchanged.
func (c Checkpoint) Advance(publishedAt time.Time, noteID, reference string) Checkpoint {
	if publishedAt.Before(c.LastSyncedAt) {
		return c
	}
	return Checkpoint{
		LastSyncedAt:  publishedAt,
		LastNoteID:    noteID,
		LastReference: reference,
		UpdatedAt:     c.UpdatedAt,
	}
}

// Store loads and saves the checkpoint.
//
// Load returns Default() with a nil error when nothing has been persisted
// yet. Unreadable or corrupt state yields Default() together with a
// *StoreError so the caller can report it and carry on.
type Store interface {
	Load(ctx context.Context) (Checkpoint, error)
	Save(ctx context.Context, cp Checkpoint) error
	Close() error
}

// StoreError reports a failed load or save.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile Backend = "file"
	BackendBolt Backend = "bolt"
)

// Open returns the store for backend at path.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStoreAt(path), nil
	case BackendBolt:
		return OpenBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q: must be 'file' or 'bolt'", backend)
	}
}
