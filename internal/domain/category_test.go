package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories_FirstSeenOrder(t *testing.T) {
	quotes := []Quote{
		{Text: "1", Category: "A"},
		{Text: "2", Category: "B"},
		{Text: "3", Category: "A"},
		{Text: "4", Category: "C"},
	}

	assert.Equal(t, []string{"A", "B", "C"}, Categories(quotes))
}

func TestCategories_Empty(t *testing.T) {
	assert.Empty(t, Categories(nil))
}

func TestFilterByCategory(t *testing.T) {
	quotes := []Quote{
		{Text: "1", Category: "A"},
		{Text: "2", Category: "B"},
		{Text: "3", Category: "A"},
	}

	tests := []struct {
		name     string
		category string
		want     []Quote
	}{
		{name: "sentinel returns all", category: AllCategories, want: quotes},
		{name: "empty returns all", category: "", want: quotes},
		{name: "matching category", category: "A", want: []Quote{quotes[0], quotes[2]}},
		{name: "no match", category: "Z", want: []Quote{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterByCategory(quotes, tt.category))
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, AllCategories, NormalizeCategory(""))
	assert.Equal(t, AllCategories, NormalizeCategory("   "))
	assert.Equal(t, "Life", NormalizeCategory(" Life "))
}
