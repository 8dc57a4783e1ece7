package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketProgress = []byte("progress")
	keyCheckpoint  = []byte("checkpoint")
)

// BoltStore keeps the checkpoint in a BoltDB file. The database file lock
// makes a second concurrent invocation fail to open the store.
type BoltStore struct {
	db   *bolt.DB
	path string
	now  func() time.Time
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProgress)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, path: path, now: time.Now}, nil
}

// Load reads the checkpoint. An empty bucket is a first run.
func (s *BoltStore) Load(ctx context.Context) (Checkpoint, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProgress)
		if b == nil {
			return nil
		}
		if v := b.Get(keyCheckpoint); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return Default(), &StoreError{Op: "load", Path: s.path, Err: err}
	}
	if data == nil {
		return Default(), nil
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Default(), &StoreError{Op: "load", Path: s.path, Err: fmt.Errorf("failed to parse checkpoint: %w", err)}
	}
	return cp, nil
}

// Save writes the checkpoint in a single transaction.
func (s *BoltStore) Save(ctx context.Context, cp Checkpoint) error {
	cp.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(cp)
	if err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: fmt.Errorf("failed to marshal checkpoint: %w", err)}
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProgress)
		if b == nil {
			return errors.New("progress bucket missing")
		}
		return b.Put(keyCheckpoint, data)
	})
	if err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
