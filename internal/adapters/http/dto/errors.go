// Package dto holds the wire shapes of the quote API and turns domain errors
// into its JSON error envelope.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// ErrorResponse is the envelope of every non-2xx API response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail is the machine code, a readable message and, for validation
// failures, a field to message map.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeBadRequest  = "BAD_REQUEST"
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeForbidden   = "FORBIDDEN"
	ErrorCodeNotFound    = "NOT_FOUND"
	ErrorCodeTimeout     = "TIMEOUT"
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)

const internalMessage = "an internal error occurred"

var codeStatus = map[string]int{
	ErrorCodeBadRequest:  http.StatusBadRequest,
	ErrorCodeValidation:  http.StatusBadRequest,
	ErrorCodeForbidden:   http.StatusForbidden,
	ErrorCodeNotFound:    http.StatusNotFound,
	ErrorCodeTimeout:     http.StatusGatewayTimeout,
	ErrorCodeUnavailable: http.StatusServiceUnavailable,
	ErrorCodeInternal:    http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error code; unknown codes are 500.
func StatusFor(code string) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NewErrorResponse builds an envelope.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// WithDetails attaches field messages.
func (e *ErrorResponse) WithDetails(details map[string]string) *ErrorResponse {
	if len(details) > 0 {
		e.Error.Details = details
	}
	return e
}

// WithTraceID records the trace ID; an empty one leaves the field as is.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	if traceID != "" {
		e.TraceID = traceID
	}
	return e
}

// ErrorFor classifies err. Anything not recognised is an internal error whose
// cause is kept out of the response.
func ErrorFor(err error) *ErrorResponse {
	var invalid *domain.ValidationError

	switch {
	case errors.As(err, &invalid):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())
		if invalid.Field != "" {
			resp.WithDetails(map[string]string{invalid.Field: invalid.Message})
		}
		return resp
	case domain.IsValidation(err):
		return NewErrorResponse(ErrorCodeValidation, err.Error())
	case domain.IsNotFound(err):
		return NewErrorResponse(ErrorCodeNotFound, err.Error())
	case domain.IsUnavailable(err):
		return NewErrorResponse(ErrorCodeUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewErrorResponse(ErrorCodeTimeout, "request timed out")
	default:
		return NewErrorResponse(ErrorCodeInternal, internalMessage)
	}
}

// TraceID returns the trace ID of the request span, or "".
func TraceID(c *gin.Context) string {
	return telemetry.TraceID(c.Request.Context())
}

// HandleError writes the envelope for err. Internal errors are logged with
// their cause.
func HandleError(c *gin.Context, err error) {
	resp := ErrorFor(err).WithTraceID(TraceID(c))
	status := StatusFor(resp.Error.Code)

	if status == http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed", slog.Any("error", err))
	}

	c.JSON(status, resp)
}

// HandleBindError writes the response for a failed BindAndValidate or
// BindQueryAndValidate: field details for rule violations, a plain 400 for
// unreadable input.
func HandleBindError(c *gin.Context, err error) {
	resp := NewErrorResponse(ErrorCodeBadRequest, "malformed request")

	if details := FieldErrors(err); len(details) > 0 {
		resp = NewErrorResponse(ErrorCodeValidation, "request validation failed").WithDetails(details)
	}

	c.JSON(http.StatusBadRequest, resp.WithTraceID(TraceID(c)))
}

// AbortWithCode stops the chain with an explicit code.
func AbortWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(StatusFor(code), NewErrorResponse(code, message).WithTraceID(TraceID(c)))
}
