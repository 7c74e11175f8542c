package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Messages returned to callers on successful mutations.
const (
	MsgQuoteAdded     = "New quote added successfully!"
	MsgQuotesImported = "Quotes imported successfully!"
)

// ExportFilename is the suggested name of the export artifact.
const ExportFilename = "quotes.json"

// errVerifyMismatch is returned when the durable slot does not read back as written.
var errVerifyMismatch = errors.New("stored collection does not match written collection")

// QuoteStore holds the quote collection in memory and mirrors it to the
// durable slot ports.KeyQuotes. Every mutation writes the slot first and only
// then swaps the in-memory copy, under one lock, so the two never diverge.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []domain.Quote

	kv      ports.KeyValueStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// QuoteStoreConfig contains the store's dependencies.
type QuoteStoreConfig struct {
	KV      ports.KeyValueStore
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewQuoteStore creates a store holding the seed collection. Call Load to
// rehydrate from the durable slot. Panics if KV is nil.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.KV == nil {
		panic("QuoteStore: KV is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "app.QuoteStore"))

	return &QuoteStore{
		quotes:  domain.SeedQuotes(),
		kv:      cfg.KV,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Load reads the durable slot. A missing or unparsable slot falls back to the
// seed collection; only a failing backend is an error.
func (s *QuoteStore) Load(ctx context.Context) error {
	raw, found, err := s.kv.Read(ctx, ports.KeyQuotes)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ports.KeyQuotes, err)
	}

	quotes := domain.SeedQuotes()

	switch {
	case !found:
		s.logger.InfoContext(ctx, "no stored quotes, using seed collection")
	default:
		var stored []domain.Quote
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.WarnContext(ctx, "stored quotes unreadable, using seed collection",
				slog.Any("error", err))
			break
		}
		quotes = domain.CloneQuotes(stored)
	}

	s.mu.Lock()
	s.quotes = quotes
	s.mu.Unlock()

	s.metrics.SetQuotes(len(quotes))
	s.logger.DebugContext(ctx, "quotes loaded", slog.Int("count", len(quotes)))

	return nil
}

// Snapshot returns a copy of the collection.
func (s *QuoteStore) Snapshot() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneQuotes(s.quotes)
}

// Len returns the collection size.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Add appends a quote after trimming both fields. Empty fields are a
// domain.ValidationError and leave the store unchanged.
func (s *QuoteStore) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	err = s.mutate(ctx, "add", func(current []domain.Quote) []domain.Quote {
		return append(domain.CloneQuotes(current), q)
	})
	if err != nil {
		return domain.Quote{}, err
	}

	return q, nil
}

// ReplaceAll replaces the whole collection. quotes must not be nil.
func (s *QuoteStore) ReplaceAll(ctx context.Context, quotes []domain.Quote) error {
	if quotes == nil {
		return &CommitError{Op: "quotes.replace", Phase: PhaseCheck,
			Err: domain.NewValidationError("quotes", "must not be nil")}
	}

	next := domain.CloneQuotes(quotes)

	return s.mutate(ctx, "replace", func([]domain.Quote) []domain.Quote { return next })
}

// Export serializes the collection as an indented JSON array.
func (s *QuoteStore) Export(context.Context) ([]byte, error) {
	out, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	return out, nil
}

// Import replaces the collection with the JSON array in payload and returns
// the new size. Malformed JSON and non-array values are validation errors on
// the "file" field; the store is unchanged in both cases.
func (s *QuoteStore) Import(ctx context.Context, payload []byte) (int, error) {
	quotes, err := decodeImport(payload)
	if err != nil {
		return 0, err
	}

	if err := s.ReplaceAll(ctx, quotes); err != nil {
		return 0, err
	}

	return len(quotes), nil
}

func decodeImport(payload []byte) ([]domain.Quote, error) {
	if !json.Valid(payload) {
		return nil, domain.NewValidationError("file", "invalid JSON")
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.NewValidationError("file", "expected an array of quotes")
	}

	quotes := []domain.Quote{}
	if err := json.Unmarshal(trimmed, &quotes); err != nil {
		return nil, domain.NewValidationError("file", "expected an array of quotes")
	}

	return quotes, nil
}

// mutate computes the next collection from the current one and commits it
// while holding the write lock.
func (s *QuoteStore) mutate(ctx context.Context, name string, next func([]domain.Quote) []domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := commit[[]domain.Quote]{
		op: "quotes." + name,
		check: func(in []domain.Quote) error {
			if in == nil {
				return domain.NewValidationError("quotes", "must not be nil")
			}
			return nil
		},
		persist: func(ctx context.Context, in []domain.Quote) (string, error) {
			raw, err := domain.MarshalQuotes(in)
			if err != nil {
				return "", fmt.Errorf("encoding quotes: %w", err)
			}
			if err := s.kv.Write(ctx, ports.KeyQuotes, string(raw)); err != nil {
				return "", err
			}
			return string(raw), nil
		},
		verify: func(ctx context.Context, written string) error {
			stored, found, err := s.kv.Read(ctx, ports.KeyQuotes)
			if err != nil {
				return err
			}
			if !found || stored != written {
				return errVerifyMismatch
			}
			return nil
		},
		apply: func(in []domain.Quote) { s.quotes = in },
	}

	candidate := next(s.quotes)
	err := c.run(ctx, s.logger, candidate)

	size := len(s.quotes)
	s.metrics.ObserveWrite(name, size, err)
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "quotes committed",
		slog.String("operation", name),
		slog.Int("count", size))

	return nil
}
