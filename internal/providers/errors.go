package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Completion failure sentinels. Provider errors wrap one of these so callers
// can classify failures with errors.Is.
var (
	ErrAuth          = errors.New("authentication failed")
	ErrRateLimited   = errors.New("rate limited")
	ErrModelNotFound = errors.New("model not found")
	ErrNetwork       = errors.New("network error")
	ErrEmptyResponse = errors.New("empty response")
)

// FailureKind names a class of completion failure for reports.
type FailureKind string

const (
	FailureNetwork       FailureKind = "network"
	FailureAuth          FailureKind = "auth"
	FailureRateLimit     FailureKind = "rate_limit"
	FailureModelNotFound FailureKind = "model_not_found"
	FailureEmptyResponse FailureKind = "empty_response"
	FailureUnknown       FailureKind = "unknown"
)

// Classify maps a completion error to a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return FailureAuth
	case errors.Is(err, ErrRateLimited):
		return FailureRateLimit
	case errors.Is(err, ErrModelNotFound):
		return FailureModelNotFound
	case errors.Is(err, ErrEmptyResponse):
		return FailureEmptyResponse
	case errors.Is(err, ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FailureNetwork
	}
	return FailureUnknown
}

// StatusError wraps the sentinel matching an HTTP status. Unmapped statuses
// produce a plain error.
func StatusError(backend string, status int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrAuth
	case status == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case status == http.StatusNotFound:
		sentinel = ErrModelNotFound
	case status >= 500:
		sentinel = ErrNetwork
	}
	if sentinel == nil {
		return fmt.Errorf("%s: status %d: %s", backend, status, body)
	}
	return fmt.Errorf("%s: status %d: %w: %s", backend, status, sentinel, body)
}

// Describe formats err as "<kind>: <message>" for result records.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", Classify(err), err)
}
