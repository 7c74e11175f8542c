// Package tomlfile keeps every key-value slot in one TOML document on disk.
package tomlfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// document is the on-disk shape.
type document struct {
	Slots map[string]string `toml:"slots"`
}

// Store is a ports.KeyValueStore backed by a TOML file. The whole document is
// rewritten on every Write through a temp file and rename.
type Store struct {
	mu    sync.RWMutex
	path  string
	slots map[string]string
}

// Open loads path, or starts empty if it does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, slots: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", path, err)
	}
	for k, v := range doc.Slots {
		s.slots[k] = v
	}

	return s, nil
}

// Read returns the value under key.
func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.slots[key]
	return v, ok, nil
}

// Write sets key and persists the document. The in-memory slot is only
// updated when the file write succeeds.
func (s *Store) Write(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.slots)+1)
	for k, v := range s.slots {
		next[k] = v
	}
	next[key] = value

	if err := s.flush(next); err != nil {
		return err
	}
	s.slots = next
	return nil
}

func (s *Store) flush(slots map[string]string) error {
	raw, err := toml.Marshal(document{Slots: slots})
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".quotes-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "toml-store" }

// Check verifies the store directory is still reachable.
func (s *Store) Check(context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil // created on first write
	}
	if err != nil {
		return fmt.Errorf("stat store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store dir %s is not a directory", dir)
	}
	return nil
}

// Close is a no-op; every Write is already durable.
func (s *Store) Close() error { return nil }
