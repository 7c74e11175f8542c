package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuote(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		category  string
		want      Quote
		wantField string
	}{
		{
			name:     "trims both fields",
			text:     "  Stay hungry.  ",
			category: "\tLife\n",
			want:     Quote{Text: "Stay hungry.", Category: "Life"},
		},
		{
			name:      "empty text",
			text:      "",
			category:  "Life",
			wantField: "text",
		},
		{
			name:      "whitespace text",
			text:      "   ",
			category:  "Life",
			wantField: "text",
		},
		{
			name:      "whitespace category",
			text:      "Stay hungry.",
			category:  "  ",
			wantField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewQuote(tt.text, tt.category)

			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, IsValidation(err))

				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantField, vErr.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedQuotes(t *testing.T) {
	seeds := SeedQuotes()

	require.Len(t, seeds, 3)
	assert.Equal(t, []string{"Motivation", "Inspiration", "Success"}, Categories(seeds))

	// Callers must not be able to mutate the built-in set.
	seeds[0].Text = "changed"
	assert.NotEqual(t, "changed", SeedQuotes()[0].Text)
}

func TestCloneQuotes(t *testing.T) {
	t.Run("nil yields empty slice", func(t *testing.T) {
		out := CloneQuotes(nil)
		require.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("copy is independent", func(t *testing.T) {
		in := []Quote{{Text: "a", Category: "A"}}
		out := CloneQuotes(in)
		out[0].Text = "b"
		assert.Equal(t, "a", in[0].Text)
	})
}
