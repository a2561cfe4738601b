// Package errors defines the typed failures surfaced by the game services and
// their translation to HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable identifier clients see in error envelopes.
type Code string

const (
	CodeInternal       Code = "ERR_0000"
	CodeBadRequest     Code = "ERR_0001"
	CodeNotFound       Code = "ERR_0002"
	CodeIncrementLimit Code = "ERR_0003"
	CodeRateLimited    Code = "ERR_0004"
)

var messages = map[Code]string{
	CodeInternal:       "An internal error occurred when the system tried to process your request",
	CodeBadRequest:     "There is something wrong with the request you sent to be processed by the system",
	CodeNotFound:       "Game not found",
	CodeIncrementLimit: "The increment limit was reached; the last valid state was returned",
	CodeRateLimited:    "Too many requests",
}

// Message returns the fixed human readable text for the code.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return "No description"
}

// Kind classifies a failure for callers that branch on it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// ServiceError is the single error type returned across service boundaries.
type ServiceError struct {
	Kind       Kind
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Validation reports malformed input. The detail is kept for logs while the
// public message stays the generic bad request text.
func Validation(detail string) *ServiceError {
	return &ServiceError{
		Kind:       KindValidation,
		Code:       CodeBadRequest,
		Message:    CodeBadRequest.Message(),
		HTTPStatus: http.StatusBadRequest,
		Err:        stderrors.New(detail),
	}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *ServiceError {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound reports that a resource id does not resolve.
func NotFound(resource, id string) *ServiceError {
	return &ServiceError{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		Message:    CodeNotFound.Message(),
		HTTPStatus: http.StatusNotFound,
		Err:        fmt.Errorf("%s %q not found", resource, id),
	}
}

// Internal wraps an unexpected failure such as a persistence error.
func Internal(err error) *ServiceError {
	return &ServiceError{
		Kind:       KindInternal,
		Code:       CodeInternal,
		Message:    CodeInternal.Message(),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// RateLimitExceeded reports a throttled client.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Kind:       KindRateLimited,
		Code:       CodeRateLimited,
		Message:    CodeRateLimited.Message(),
		HTTPStatus: http.StatusTooManyRequests,
		Err:        fmt.Errorf("limit of %d requests per %s exceeded", limit, window),
	}
}

// From classifies any error. Errors that are not a ServiceError become Internal.
func From(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		return svcErr
	}
	return Internal(err)
}

// IsNotFound reports whether err carries the not found kind.
func IsNotFound(err error) bool {
	var svcErr *ServiceError
	return stderrors.As(err, &svcErr) && svcErr.Kind == KindNotFound
}

// IsValidation reports whether err carries the validation kind.
func IsValidation(err error) bool {
	var svcErr *ServiceError
	return stderrors.As(err, &svcErr) && svcErr.Kind == KindValidation
}

// FromResponse rebuilds a ServiceError from a decoded error envelope. The
// kind is derived from the HTTP status.
func FromResponse(status int, code Code, message string) *ServiceError {
	kind := KindInternal
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 400 && status < 500:
		kind = KindValidation
	}
	if code == "" {
		code = CodeInternal
		if kind == KindValidation {
			code = CodeBadRequest
		}
	}
	if message == "" {
		message = code.Message()
	}
	return &ServiceError{Kind: kind, Code: code, Message: message, HTTPStatus: status}
}
