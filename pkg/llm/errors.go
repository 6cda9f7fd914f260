package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrThrottled   = errors.New("reviewer rate limited")
	ErrUnavailable = errors.New("reviewer unavailable")
	ErrMalformed   = errors.New("reviewer output malformed")
)

// ClassifyStatus turns a non-200 provider answer into one of the sentinel
// errors. A 429 or a RESOURCE_EXHAUSTED body counts as throttling.
func ClassifyStatus(provider string, status int, body []byte) error {
	if status == http.StatusTooManyRequests || bytes.Contains(body, []byte("RESOURCE_EXHAUSTED")) {
		return fmt.Errorf("%w: %s status %d", ErrThrottled, provider, status)
	}
	return fmt.Errorf("%w: %s status %d, body: %s", ErrUnavailable, provider, status, truncate(body, 512))
}

// ClassifyTransport wraps a failed round trip.
func ClassifyTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, provider, err)
	}
	return fmt.Errorf("%w: %s request failed: %v", ErrUnavailable, provider, err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
