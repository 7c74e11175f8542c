package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// remote performs JSON exchanges with one service and reports every failure
// as a domain error.
type remote struct {
	client  *clients.Client
	service string
}

func (r remote) getJSON(ctx context.Context, path, op string, out any) error {
	resp, err := r.client.Get(ctx, path)
	return r.finish(resp, err, op, path, out)
}

func (r remote) postJSON(ctx context.Context, path, op string, in, out any) error {
	resp, err := r.client.PostJSON(ctx, path, in)
	return r.finish(resp, err, op, path, out)
}

// finish classifies the exchange and, on success, decodes the body into out.
// A nil out discards the body.
func (r remote) finish(resp *http.Response, err error, op, path string, out any) error {
	if err != nil {
		return r.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return r.statusError(op, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUnavailableError(r.service, fmt.Sprintf("%s: decoding response: %v", op, err))
	}

	return nil
}

func (r remote) transportError(op string, err error) error {
	var status *clients.StatusError

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(r.service, "circuit open during "+op)
	case errors.As(err, &status):
		return domain.NewUnavailableError(r.service, fmt.Sprintf("%s: %v", op, status))
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(r.service, "retries exhausted during "+op)
	default:
		return domain.NewUnavailableError(r.service, fmt.Sprintf("%s: %v", op, err))
	}
}

func (r remote) statusError(op, path string, resp *http.Response) error {
	body := parseRemoteError(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.NewNotFoundError(r.service, path)

	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if field, msg, ok := body.firstDetail(); ok {
			return domain.NewValidationError(field, msg)
		}
		return domain.NewValidationError("", body.messageOr(fmt.Sprintf("%s rejected", op)))

	default:
		// Retryable statuses arrive as clients.StatusError; this covers 401,
		// 403 and anything unexpected.
		return domain.NewUnavailableError(r.service,
			body.messageOr(fmt.Sprintf("%s answered %d", op, resp.StatusCode)))
	}
}

// remoteError is the error body the posts API may return, either nested
// under "error" or flat.
type remoteError struct {
	Error struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Message string `json:"message"`
}

func parseRemoteError(body io.Reader) remoteError {
	var e remoteError
	if body != nil {
		_ = json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&e)
	}
	return e
}

func (e remoteError) messageOr(fallback string) string {
	switch {
	case e.Error.Message != "":
		return e.Error.Message
	case e.Message != "":
		return e.Message
	default:
		return fallback
	}
}

// firstDetail returns the alphabetically first field detail.
func (e remoteError) firstDetail() (field, msg string, ok bool) {
	if len(e.Error.Details) == 0 {
		return "", "", false
	}
	field = slices.Sorted(maps.Keys(e.Error.Details))[0]
	return field, e.Error.Details[field], true
}
