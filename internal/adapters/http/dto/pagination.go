package dto

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// Page size bounds for listings.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for a cursor that does not decode or was
// issued for another category filter.
var ErrInvalidCursor = errors.New("invalid cursor")

// PageRequest is the cursor and size of a listing page.
type PageRequest struct {
	Cursor string `form:"cursor" json:"cursor"`
	Limit  int    `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// Size clamps Limit to [1, MaxLimit], using DefaultLimit when unset.
func (p PageRequest) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// PaginatedResponse is one page of a listing.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
	Total      int    `json:"total"`
}

// cursor is a position in a filtered listing. Quotes carry no identity, so
// the position is an offset, bound to the filter it was issued for.
type cursor struct {
	offset int
	scope  string
}

func (c cursor) String() string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(c.offset) + ":" + c.scope))
}

// parseCursor reads a cursor issued for scope. An empty token is the start.
func parseCursor(token, scope string) (cursor, error) {
	if token == "" {
		return cursor{scope: scope}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, ErrInvalidCursor
	}

	offset, issuedFor, ok := strings.Cut(string(raw), ":")
	if !ok || issuedFor != scope {
		return cursor{}, ErrInvalidCursor
	}

	n, err := strconv.Atoi(offset)
	if err != nil || n < 0 {
		return cursor{}, ErrInvalidCursor
	}

	return cursor{offset: n, scope: scope}, nil
}

// Paginate cuts the page selected by req out of items, which must be the
// listing filtered by scope. A cursor past the end yields an empty page.
func Paginate[T any](items []T, req PageRequest, scope string) (*PaginatedResponse[T], error) {
	at, err := parseCursor(req.Cursor, scope)
	if err != nil {
		return nil, err
	}

	start := min(at.offset, len(items))
	end := min(start+req.Size(), len(items))

	page := &PaginatedResponse[T]{
		Items:   append([]T{}, items[start:end]...),
		HasMore: end < len(items),
		Total:   len(items),
	}

	if page.HasMore {
		page.NextCursor = cursor{offset: end, scope: scope}.String()
	}

	return page, nil
}
