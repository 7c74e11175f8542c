package domain

// NoQuotesMessage is shown instead of a quote when a selection is empty.
const NoQuotesMessage = "No quotes available."

// Display is what a caller renders after a pick: either a quote or the
// placeholder message, never both.
type Display struct {
	Quote   *Quote `json:"quote,omitempty"`
	Message string `json:"message,omitempty"`
}

// Empty reports whether the display holds the placeholder.
func (d Display) Empty() bool {
	return d.Quote == nil
}

// IntN returns a uniform integer in [0, n). math/rand/v2's *rand.Rand and the
// package-level rand.IntN both satisfy it.
type IntN func(n int) int

// PickRandom selects a quote uniformly from the category-filtered subsequence.
// An empty subsequence produces the placeholder instead of an error.
func PickRandom(quotes []Quote, category string, intN IntN) Display {
	candidates := FilterByCategory(quotes, category)
	if len(candidates) == 0 {
		return Display{Message: NoQuotesMessage}
	}

	q := candidates[intN(len(candidates))]

	return Display{Quote: &q}
}
