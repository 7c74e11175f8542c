// Package app contains the quote keeper's use cases. It coordinates the
// domain rules with storage and the remote collection through ports.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// QuotePusher forwards newly added quotes to the remote collection.
type QuotePusher interface {
	Push(ctx context.Context, quote domain.Quote)
}

// CategoryList is the category picker state.
type CategoryList struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// QuoteService implements the read-and-select use cases on top of QuoteStore:
// random display, category filtering with a persisted selection, and the
// per-session last displayed quote.
type QuoteService struct {
	store      *QuoteStore
	kv         ports.KeyValueStore
	sessions   ports.SessionCache
	sessionTTL time.Duration
	pusher     QuotePusher
	intN       domain.IntN
	logger     *slog.Logger

	mu       sync.RWMutex
	selected string
}

// QuoteServiceConfig contains the service's dependencies.
type QuoteServiceConfig struct {
	Store      *QuoteStore
	KV         ports.KeyValueStore
	Sessions   ports.SessionCache
	SessionTTL time.Duration

	// Pusher is optional. When set, Add forwards every new quote to it.
	Pusher QuotePusher

	// IntN is the randomness source. Defaults to math/rand/v2.IntN.
	IntN domain.IntN

	Logger *slog.Logger
}

// NewQuoteService creates the service. Panics if Store, KV or Sessions is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil || cfg.KV == nil || cfg.Sessions == nil {
		panic("QuoteService: Store, KV and Sessions are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	intN := cfg.IntN
	if intN == nil {
		intN = rand.IntN
	}

	return &QuoteService{
		store:      cfg.Store,
		kv:         cfg.KV,
		sessions:   cfg.Sessions,
		sessionTTL: cfg.SessionTTL,
		pusher:     cfg.Pusher,
		intN:       intN,
		logger:     logger.With(slog.String("component", "app.QuoteService")),
		selected:   domain.AllCategories,
	}
}

// Add stores a new quote and hands it to the pusher.
func (s *QuoteService) Add(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := s.store.Add(ctx, text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	s.log(ctx).InfoContext(ctx, "quote added", slog.String("category", q.Category))

	if s.pusher != nil {
		s.pusher.Push(ctx, q)
	}

	return q, nil
}

// List returns the quotes in category, or all of them for the sentinel.
func (s *QuoteService) List(_ context.Context, category string) []domain.Quote {
	return domain.FilterByCategory(s.store.Snapshot(), category)
}

// Categories returns the distinct categories and the current selection.
func (s *QuoteService) Categories(context.Context) CategoryList {
	return CategoryList{
		Categories: domain.Categories(s.store.Snapshot()),
		Selected:   s.Selected(),
	}
}

// Selected returns the current category selection.
func (s *QuoteService) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

// SelectCategory persists a new selection under ports.KeySelectedCategory and
// shows a fresh pick from it to the session. An empty category selects
// everything.
func (s *QuoteService) SelectCategory(ctx context.Context, sessionID, category string) (domain.Display, error) {
	category = domain.NormalizeCategory(category)

	if err := s.kv.Write(ctx, ports.KeySelectedCategory, category); err != nil {
		return domain.Display{}, fmt.Errorf("saving category selection: %w", err)
	}

	s.mu.Lock()
	s.selected = category
	s.mu.Unlock()

	s.log(ctx).DebugContext(ctx, "category selected", slog.String("category", category))

	return s.ShowRandom(ctx, sessionID, category), nil
}

// RestoreSelection loads the persisted selection, defaulting to all categories.
func (s *QuoteService) RestoreSelection(ctx context.Context) (string, error) {
	stored, found, err := s.kv.Read(ctx, ports.KeySelectedCategory)
	if err != nil {
		return "", fmt.Errorf("reading category selection: %w", err)
	}

	category := domain.AllCategories
	if found {
		category = domain.NormalizeCategory(stored)
	}

	s.mu.Lock()
	s.selected = category
	s.mu.Unlock()

	return category, nil
}

// ShowRandom picks a quote from category, or from the current selection when
// category is blank, and remembers it for the session. An empty pick returns
// the placeholder and leaves the session untouched.
func (s *QuoteService) ShowRandom(ctx context.Context, sessionID, category string) domain.Display {
	category = strings.TrimSpace(category)
	if category == "" {
		category = s.Selected()
	}

	display := domain.PickRandom(s.store.Snapshot(), category, s.intN)
	if display.Empty() || sessionID == "" {
		return display
	}

	if err := s.remember(ctx, sessionID, *display.Quote); err != nil {
		s.log(ctx).WarnContext(ctx, "failed to remember last quote", slog.Any("error", err))
	}

	return display
}

// LastQuote returns the last quote shown to the session, or domain.ErrNotFound.
func (s *QuoteService) LastQuote(ctx context.Context, sessionID string) (domain.Quote, error) {
	raw, err := s.sessions.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Quote{}, domain.NewNotFoundError("last quote", sessionID)
		}
		return domain.Quote{}, fmt.Errorf("reading last quote: %w", err)
	}

	var q domain.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding last quote: %w", err)
	}

	return q, nil
}

func (s *QuoteService) remember(ctx context.Context, sessionID string, q domain.Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionKey(sessionID), raw, s.sessionTTL)
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

func sessionKey(sessionID string) string {
	return sessionID + ":" + ports.KeyLastQuote
}
