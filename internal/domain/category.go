package domain

import "strings"

// AllCategories is the sentinel selection meaning "no filter".
const AllCategories = "all"

// Categories returns the distinct categories in the order they first appear.
func Categories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// FilterByCategory returns the quotes matching category, preserving order.
// The AllCategories sentinel and the empty string match every quote.
func FilterByCategory(quotes []Quote, category string) []Quote {
	if IsAllCategories(category) {
		return CloneQuotes(quotes)
	}

	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Category == category {
			out = append(out, q)
		}
	}

	return out
}

// IsAllCategories reports whether category selects the whole collection.
func IsAllCategories(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || category == AllCategories
}

// NormalizeCategory trims a category selection and maps empty to the sentinel.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return AllCategories
	}

	return category
}
