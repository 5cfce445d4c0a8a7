// Package errors defines the service's error taxonomy as sentinel errors
// plus an AppError wrapper carrying an HTTP status. Handlers classify errors
// with errors.Is/As against these sentinels; error message text is never
// inspected.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingFields indicates the request lacked a question or language.
	ErrMissingFields = errors.New("missing required fields: question and language")
	// ErrInvalidLanguage indicates the request language is not supported.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrCorpusLoad indicates the corpus was missing or malformed at startup.
	ErrCorpusLoad = errors.New("corpus load failed")
	// ErrEmbedding indicates embedding computation failed or is unavailable.
	// It is recovered by the lexical fallback and never reaches the caller
	// on its own.
	ErrEmbedding = errors.New("embedding unavailable")
	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
	// ErrInternal is the catch-all for unexpected faults.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel error with a caller-facing message and HTTP
// status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel in an AppError.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf wraps a sentinel in an AppError with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status the caller should see:
// 400 for the two client-side validation kinds, 500 for everything else.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidLanguage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
