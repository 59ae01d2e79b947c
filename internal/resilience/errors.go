// Package resilience provides retry and circuit breaker patterns for
// outbound provider calls.
package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// RateLimitError marks an HTTP 429 response. It is retried under a separate,
// more generous attempt budget than other transient failures.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string { return e.Err.Error() }

func (e *RateLimitError) Unwrap() error { return e.Err }

// NewRateLimitError wraps an error as a rate-limit rejection.
func NewRateLimitError(err error) *RateLimitError {
	return &RateLimitError{Err: err}
}

// FromStatus classifies an HTTP status into the retry taxonomy: 429 becomes
// a RateLimitError, other retryable statuses become TransientError, and the
// rest pass through unchanged (terminal).
func FromStatus(err error, statusCode int) error {
	if err == nil {
		return nil
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(err)
	case IsTransientHTTPStatus(statusCode):
		return NewTransientError(err, statusCode)
	default:
		return err
	}
}

// statusCarrier is satisfied by client StatusError types that expose the
// HTTP status of a failed request.
type statusCarrier interface {
	error
	HTTPStatus() int
}

// Classify maps a provider client error into the retry taxonomy. Errors
// that carry an HTTP status are classified by FromStatus; everything
// else passes through and is judged by IsTransient at retry time.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var sc statusCarrier
	if errors.As(err, &sc) {
		return FromStatus(err, sc.HTTPStatus())
	}
	return err
}

// IsRateLimited reports whether the chain contains a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError or RateLimitError, or matches common transient network
// failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if IsRateLimited(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true for server-side statuses that are safe
// to retry. 429 is handled separately via RateLimitError.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
