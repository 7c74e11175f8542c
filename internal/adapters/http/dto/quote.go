package dto

import "github.com/jsamuelsen/quotekeeper/internal/domain"

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a slice of domain quotes.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}
	return out
}

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text"     validate:"notblank"`
	Category string `json:"category" validate:"notblank"`
}

// CreateQuoteResponse confirms an added quote.
type CreateQuoteResponse struct {
	Quote   QuoteResponse `json:"quote"`
	Message string        `json:"message"`
}

// ListQuotesRequest is the query of GET /quotes.
type ListQuotesRequest struct {
	PageRequest

	Category string `form:"category" json:"category"`
}

// DisplayResponse is either a quote or the placeholder message.
type DisplayResponse struct {
	Quote   *QuoteResponse `json:"quote,omitempty"`
	Message string         `json:"message,omitempty"`
}

// NewDisplayResponse converts a domain display.
func NewDisplayResponse(d domain.Display) DisplayResponse {
	if d.Empty() {
		return DisplayResponse{Message: d.Message}
	}

	q := NewQuoteResponse(*d.Quote)
	return DisplayResponse{Quote: &q}
}

// ImportResponse confirms an import.
type ImportResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// CategoriesResponse lists the categories and the current selection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// SelectCategoryRequest is the body of PUT /categories/selected. An empty
// category selects all quotes.
type SelectCategoryRequest struct {
	Category string `json:"category"`
}

// SelectCategoryResponse is the new selection and a pick from it.
type SelectCategoryResponse struct {
	Selected string          `json:"selected"`
	Display  DisplayResponse `json:"display"`
}

// SyncResponse reports one sync cycle.
type SyncResponse struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// NotificationResponse is the latest background notification.
type NotificationResponse struct {
	Message string `json:"message"`
	At      string `json:"at"`
}
