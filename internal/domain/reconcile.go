package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decision is the outcome of comparing the local collection with a remote one.
type Decision int

const (
	// DecisionKeep leaves the local collection untouched.
	DecisionKeep Decision = iota

	// DecisionReplace swaps the local collection for the remote one.
	DecisionReplace
)

// String returns a human-readable name for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionKeep:
		return "keep"
	case DecisionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// MarshalQuotes serializes a collection the way it is persisted and exported.
func MarshalQuotes(quotes []Quote) ([]byte, error) {
	if quotes == nil {
		quotes = []Quote{}
	}

	data, err := json.Marshal(quotes)
	if err != nil {
		return nil, fmt.Errorf("marshalling quotes: %w", err)
	}

	return data, nil
}

// Reconcile compares the serialized forms of both collections. Any difference
// means the server wins and the local collection is replaced wholesale.
func Reconcile(current, remote []Quote) (Decision, error) {
	local, err := MarshalQuotes(current)
	if err != nil {
		return DecisionKeep, err
	}

	server, err := MarshalQuotes(remote)
	if err != nil {
		return DecisionKeep, err
	}

	if bytes.Equal(local, server) {
		return DecisionKeep, nil
	}

	return DecisionReplace, nil
}
