package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// record is the on-disk layout. LastRun is the field older releases wrote.
type record struct {
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`
	LastRun       *time.Time `json:"lastRun,omitempty"`
	LastNoteID    string     `json:"lastNoteId,omitempty"`
	LastReference string     `json:"lastReference,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// FileStore keeps the checkpoint as a JSON document on a billy filesystem.
type FileStore struct {
	fs   billy.Filesystem
	name string
	now  func() time.Time
}

// NewFileStore creates a store for the file name inside filesystem.
func NewFileStore(filesystem billy.Filesystem, name string) *FileStore {
	return &FileStore{fs: filesystem, name: name, now: time.Now}
}

// NewFileStoreAt creates a store backed by the OS file at path.
func NewFileStoreAt(path string) *FileStore {
	return NewFileStore(osfs.New(filepath.Dir(path)), filepath.Base(path))
}

// Path returns the checkpoint file path within the filesystem.
func (s *FileStore) Path() string {
	return s.fs.Join(s.fs.Root(), s.name)
}

// Load reads the checkpoint. A missing file is a first run.
func (s *FileStore) Load(ctx context.Context) (Checkpoint, error) {
	data, err := util.ReadFile(s.fs, s.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), &StoreError{Op: "load", Path: s.Path(), Err: err}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Default(), &StoreError{Op: "load", Path: s.Path(), Err: fmt.Errorf("failed to parse checkpoint: %w", err)}
	}

	cp := Default()
	switch {
	case rec.LastSyncedAt != nil:
		cp.LastSyncedAt = *rec.LastSyncedAt
	case rec.LastRun != nil:
		cp.LastSyncedAt = *rec.LastRun
	default:
		return Default(), &StoreError{Op: "load", Path: s.Path(), Err: errors.New("checkpoint has no lastSyncedAt")}
	}
	cp.LastNoteID = rec.LastNoteID
	cp.LastReference = rec.LastReference
	if rec.UpdatedAt != nil {
		cp.UpdatedAt = *rec.UpdatedAt
	}
	return cp, nil
}

// Save replaces the checkpoint file. The new content is written to a temp
// file in the same directory and renamed over the old one, so a crash leaves
// either the previous or the new checkpoint on disk.
func (s *FileStore) Save(ctx context.Context, cp Checkpoint) error {
	updatedAt := s.now().UTC()
	rec := record{
		LastSyncedAt:  &cp.LastSyncedAt,
		LastNoteID:    cp.LastNoteID,
		LastReference: cp.LastReference,
		UpdatedAt:     &updatedAt,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return &StoreError{Op: "save", Path: s.Path(), Err: fmt.Errorf("failed to marshal checkpoint: %w", err)}
	}

	if dir := filepath.Dir(s.name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return &StoreError{Op: "save", Path: s.Path(), Err: fmt.Errorf("failed to create directory: %w", err)}
		}
	}

	if err := s.writeAtomic(data); err != nil {
		return &StoreError{Op: "save", Path: s.Path(), Err: err}
	}
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	tmp, err := s.fs.TempFile(filepath.Dir(s.name), "."+filepath.Base(s.name)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if syncer, ok := tmp.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			_ = tmp.Close()
			_ = s.fs.Remove(tmpName)
			return fmt.Errorf("failed to sync temp file: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.name); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error {
	return nil
}
