package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketHistory = "history"

// BoltHistoryManager persists entries in a bbolt bucket keyed by sequence number
type BoltHistoryManager struct {
	db         *bolt.DB
	maxEntries int
}

// NewBoltHistoryManager opens (creating if needed) the history database at path
func NewBoltHistoryManager(path string, maxEntries int) (*BoltHistoryManager, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	return &BoltHistoryManager{db: db, maxEntries: maxEntries}, nil
}

// Write appends an entry, pruning the oldest ones beyond the limit
func (b *BoltHistoryManager) Write(entry HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		if err := bucket.Put(marshalSeq(seq), data); err != nil {
			return err
		}

		var keys [][]byte
		bucket.ForEach(func(k, _ []byte) error {
			keys = append(keys, append([]byte(nil), k...))
			return nil
		})
		for i := 0; i < len(keys)-b.maxEntries; i++ {
			if err := bucket.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns every stored entry, oldest first
func (b *BoltHistoryManager) Entries() ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketHistory)).ForEach(func(_, v []byte) error {
			var e HistoryEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to parse history entry: %w", err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

// Commands returns the submitted command lines, oldest first
func (b *BoltHistoryManager) Commands() ([]string, error) {
	entries, err := b.Entries()
	if err != nil {
		return nil, err
	}
	return commandsOf(entries), nil
}

// Clear removes every entry
func (b *BoltHistoryManager) Clear() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketHistory)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketHistory))
		return err
	})
}

// Close closes the database
func (b *BoltHistoryManager) Close() error {
	return b.db.Close()
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
