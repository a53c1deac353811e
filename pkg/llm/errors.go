package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// HTTPError is returned by the provider client when the endpoint responds
// with a non-2xx status. Body is the raw response body, truncated by the
// caller before logging.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return "llm provider returned HTTP " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// ClassifyError determines the retry strategy for a dispatch failure.
// Mirrors pkg/mcp/recovery.go's ClassifyError shape: errors.Is/errors.As
// chain first, case-insensitive string match fallback.
func ClassifyError(err error, body string) ErrorClass {
	if err == nil {
		return ErrorFatal
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTransient
		}
		return ErrorTransient
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ErrorRateLimited
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return ErrorFatal
		case httpErr.StatusCode == http.StatusBadRequest:
			return ErrorFatal
		case httpErr.StatusCode >= 500:
			return ErrorTransient
		}
	}

	if isConnectionError(err) {
		return ErrorTransient
	}

	msg := strings.ToLower(err.Error() + " " + body)
	switch {
	case containsAny(msg, "rate limit", "too many requests", "quota exceeded"):
		return ErrorRateLimited
	case containsAny(msg, "invalid api key", "unauthorized", "invalid_request_error", "context length", "model not found"):
		return ErrorFatal
	case containsAny(msg, "timeout", "connection reset", "connection refused", "temporarily unavailable", "bad gateway", "service unavailable"):
		return ErrorTransient
	}

	return ErrorFatal
}

func isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return containsAny(msg, "connection refused", "connection reset", "broken pipe", "connection closed", "no such host", "eof")
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
