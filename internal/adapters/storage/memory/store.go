// Package memory provides process-local implementations of the storage ports.
package memory

import (
	"context"
	"sync"
)

// Store is an in-memory ports.KeyValueStore.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Read returns the value under key.
func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Write replaces the value under key.
func (s *Store) Write(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "memory-store" }

// Check implements ports.HealthChecker. The store is always healthy.
func (s *Store) Check(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
