package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors raised by the service layer. Handlers translate them
// to HTTP via Map; everything else keeps wrapped causes for logging.
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("operation not permitted")
	ErrInvalidInput = errors.New("invalid input")
)

// Map converts service/infra errors into an HTTP status code plus a
// short diagnostic string. Keeps handlers clean by centralizing error
// mapping; internal details never leak to the client on 500s.
func Map(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""

	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return 499, "request was canceled"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// Invalid wraps a validation failure so Map renders it as 400.
func Invalid(msg string) error {
	return errors.Join(ErrInvalidInput, errors.New(msg))
}

// Forbidden wraps an authorization failure so Map renders it as 403.
func Forbidden(msg string) error {
	return errors.Join(ErrForbidden, errors.New(msg))
}

// Classify translates a dependency failure (database, cache, identity
// verification) into a human-readable diagnostic for startup and auth
// error banners.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"),
		strings.Contains(msg, "wrongpass"),
		strings.Contains(msg, "permission"):
		return "operation not permitted"
	case strings.Contains(msg, "signature"),
		strings.Contains(msg, "invalid key"),
		strings.Contains(msg, "token"):
		return "invalid key"
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "network"):
		return "network failure"
	default:
		return "unexpected failure"
	}
}
