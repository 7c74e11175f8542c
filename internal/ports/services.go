// Package ports holds the contracts between the quote application and its
// storage, session and remote adapters. Every method takes a context first and
// reports failures with the domain error kinds.
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Durable slot keys.
const (
	// KeyQuotes holds the serialized quote collection.
	KeyQuotes = "quotes"

	// KeySelectedCategory holds the last chosen category filter as plain text.
	KeySelectedCategory = "selectedCategory"

	// KeyLastQuote holds the last displayed quote in the per-session slot.
	KeyLastQuote = "lastQuote"
)

// KeyValueStore is a durable key-value slot that survives restarts.
// Values are opaque strings; callers own serialization.
//
// Implementations: memory (tests, ephemeral runs), sqlite, toml file.
type KeyValueStore interface {
	// Read returns the value stored under key.
	// found is false when the key has never been written.
	Read(ctx context.Context, key string) (value string, found bool, err error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key, value string) error
}

// SessionCache holds values scoped to a single client session.
// Entries expire after their TTL; they are never written to durable storage.
type SessionCache interface {
	// Get retrieves a value from the cache.
	// Returns domain.ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RemoteQuotes is the remote collection used by the sync routine.
// Adapters map the remote item shape into domain quotes.
type RemoteQuotes interface {
	// FetchAll retrieves the whole remote collection as quotes.
	// Returns domain.ErrUnavailable if the remote is unreachable.
	FetchAll(ctx context.Context) ([]domain.Quote, error)

	// Create pushes a single quote to the remote collection.
	Create(ctx context.Context, quote domain.Quote) error
}
