package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is file-per-key persistence with a write-through in-memory cache.
// Reads after Set or Delete in the same process observe the new value.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]string
	subs  []func(key string)
}

func New(dataDir string) *Store {
	return &Store{
		dir:   filepath.Join(dataDir, "state"),
		cache: make(map[string]string),
	}
}

// Subscribe registers a callback invoked after every mutation. Callbacks run
// on the mutating goroutine and must not call back into the store.
func (s *Store) Subscribe(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Get returns the stored value for key. A read failure is treated as an
// absent value; it is logged and never propagated.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	if value, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return value, true
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state read failed", "key", key, "error", err)
		}
		return "", false
	}

	value := strings.TrimRight(string(data), "\n")

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	return value, true
}

func (s *Store) Set(key, value string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(s.keyPath(key), []byte(value), 0o600); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = value
	subs := append([]func(string){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}

	return nil
}

func (s *Store) Delete(key string) error {
	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	subs := append([]func(string){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}

	return nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key)
}
