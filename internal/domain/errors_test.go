package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		msg         string
		notFound    bool
		validation  bool
		unavailable bool
	}{
		{name: "not found", err: NewNotFoundError("last quote", "session-1"), msg: `last quote with id "session-1" not found`, notFound: true},
		{name: "not found without id", err: NewNotFoundError("quote", ""), msg: "quote not found", notFound: true},
		{name: "validation", err: NewValidationError("text", "must not be empty"), msg: "validation failed for text: must not be empty", validation: true},
		{name: "validation without field", err: NewValidationError("", "bad"), msg: "validation failed: bad", validation: true},
		{name: "unavailable", err: NewUnavailableError("posts", "timeout"), msg: `service "posts" unavailable: timeout`, unavailable: true},
		{name: "unavailable without reason", err: NewUnavailableError("posts", ""), msg: `service "posts" unavailable`, unavailable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.msg)

			wrapped := fmt.Errorf("importing: %w", tt.err)
			assert.Equal(t, tt.notFound, IsNotFound(wrapped))
			assert.Equal(t, tt.validation, IsValidation(wrapped))
			assert.Equal(t, tt.unavailable, IsUnavailable(wrapped))
		})
	}
}
