// Package domain contains core business entities and rules.
package domain

import (
	"strings"
)

// Quote is a single quotation record. It carries no identifier, so two quotes
// with the same text and category are distinct entries in a collection.
type Quote struct {
	// Text is the quotation itself.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// NewQuote trims both fields and rejects empty values.
func NewQuote(text, category string) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	return Quote{Text: text, Category: category}, nil
}

// SeedQuotes returns the built-in collection used when nothing has been
// persisted yet or the persisted value cannot be read.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "The only limit to our realization of tomorrow is our doubts of today.", Category: "Motivation"},
		{Text: "In the middle of every difficulty lies opportunity.", Category: "Inspiration"},
		{Text: "Success is not final, failure is not fatal: It is the courage to continue that counts.", Category: "Success"},
	}
}

// CloneQuotes returns an independent copy of quotes. A nil input yields an
// empty, non-nil slice so serialized forms are always a JSON array.
func CloneQuotes(quotes []Quote) []Quote {
	out := make([]Quote, len(quotes))
	copy(out, quotes)

	return out
}
