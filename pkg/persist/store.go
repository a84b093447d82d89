package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
)

// Store is a persistence backend for the tree document
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}

// Backend names accepted by Open
const (
	BackendJSON = "json"
	BackendYAML = "yaml"
	BackendBolt = "bolt"
)

// Open returns the store for backend rooted at path. Bolt stores must be
// closed by the caller; the returned close function is always safe to call.
func Open(backend, path string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case BackendJSON, "":
		return NewJSONFileStore(path), noop, nil
	case BackendYAML:
		return NewYAMLFileStore(path), noop, nil
	case BackendBolt:
		s, err := NewBoltStore(path, DefaultSlot)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend: %s", backend)
	}
}

// fileStore holds a document in a single file, written through a temporary
// file and a rename so a failed write never truncates the previous save.
type fileStore struct {
	path      string
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

func (fs *fileStore) Load() (*Document, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}

	var doc Document
	if err := fs.unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse save file: %w", err)
	}
	return &doc, nil
}

func (fs *fileStore) Save(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	data, err := fs.marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tempPath := fs.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary save file: %w", err)
	}
	if err := os.Rename(tempPath, fs.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary save file: %w", err)
	}
	return nil
}

// Path returns the file the store writes to
func (fs *fileStore) Path() string {
	return fs.path
}

// JSONFileStore stores the document as indented JSON
type JSONFileStore struct {
	fileStore
}

// NewJSONFileStore creates a JSON store writing to path
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{fileStore{
		path: path,
		marshal: func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		unmarshal: json.Unmarshal,
	}}
}

// YAMLFileStore stores the document as YAML
type YAMLFileStore struct {
	fileStore
}

// NewYAMLFileStore creates a YAML store writing to path
func NewYAMLFileStore(path string) *YAMLFileStore {
	return &YAMLFileStore{fileStore{
		path:      path,
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
	}}
}

const (
	bucketTrees = "trees"
	boltTimeout = time.Second
)

// DefaultSlot is the bolt key used when no save slot is named
const DefaultSlot = "default"

// BoltStore keeps one JSON-encoded document per save slot in a bbolt bucket
type BoltStore struct {
	db   *bolt.DB
	slot string
}

// NewBoltStore opens (creating if needed) the bolt database at path
func NewBoltStore(path, slot string) (*BoltStore, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTrees))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
	}
	return &BoltStore{db: db, slot: slot}, nil
}

// Load reads the document of the store's slot
func (s *BoltStore) Load() (*Document, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTrees)).Get([]byte(s.slot))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse saved document: %w", err)
	}
	return &doc, nil
}

// Save writes the document to the store's slot
func (s *BoltStore) Save(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTrees)).Put([]byte(s.slot), data)
	})
}

// Slots lists the save slots present in the database
func (s *BoltStore) Slots() ([]string, error) {
	var slots []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTrees)).ForEach(func(k, _ []byte) error {
			slots = append(slots, string(k))
			return nil
		})
	})
	return slots, err
}

// Close closes the underlying database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// MemoryStore keeps a private copy of the document in memory
type MemoryStore struct {
	mu  sync.Mutex
	doc *Document
}

// NewMemoryStore creates a store holding a copy of doc, which may be nil
func NewMemoryStore(doc *Document) *MemoryStore {
	s := &MemoryStore{}
	if doc != nil {
		s.doc = doc.Clone()
	}
	return s
}

// Load returns a copy of the stored document
func (s *MemoryStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, ErrNotFound
	}
	return s.doc.Clone(), nil
}

// Save stores a copy of doc
func (s *MemoryStore) Save(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}
