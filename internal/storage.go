package internal

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
)

// KeyValueStore is the persisted per-page storage used for session ids
// and settings
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// KeyLister is a store that can enumerate its keys by prefix
type KeyLister interface {
	List(ctx context.Context, prefix string) ([]KeyValuePair, error)
}

// Storage is a KeyValueStore backed by the SQLite kv table
type Storage struct {
	db   *sql.DB
	path string
}

// NewStorage creates a new Storage instance over an open database
func NewStorage(db *sql.DB, path string) *Storage {
	return &Storage{db: db, path: path}
}

// OpenStorage opens the SQLite database at path and wraps it in a Storage
func OpenStorage(path string) (*Storage, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return NewStorage(db, path), nil
}

// Get reads a key
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := GetKV(ctx, s.db, key)
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "get", Err: err}
	}
	return value, ok, nil
}

// Set writes a key
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := PutKV(ctx, s.db, key, value); err != nil {
		return &StorageError{Path: s.path, Op: "set", Err: err}
	}
	return nil
}

// List returns all pairs whose key starts with prefix
func (s *Storage) List(ctx context.Context, prefix string) ([]KeyValuePair, error) {
	pairs, err := QueryKV(ctx, s.db, escapeLike(prefix)+"%")
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "list", Err: err}
	}
	return pairs, nil
}

// Path returns the database location
func (s *Storage) Path() string {
	return s.path
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// escapeLike makes a prefix match literally under LIKE ... ESCAPE '\'
func escapeLike(prefix string) string {
	return likeEscaper.Replace(prefix)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MemoryStore is an in-process KeyValueStore
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get reads a key
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set writes a key
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// List returns all pairs whose key starts with prefix, sorted by key
func (m *MemoryStore) List(_ context.Context, prefix string) ([]KeyValuePair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pairs []KeyValuePair
	for k, v := range m.values {
		if strings.HasPrefix(k, prefix) {
			pairs = append(pairs, KeyValuePair{Key: k, Value: v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}
