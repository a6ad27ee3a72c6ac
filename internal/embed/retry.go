package embed

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// baseBackoff is the first retry delay; each attempt doubles it.
const baseBackoff = 500 * time.Millisecond

// backoffDelay returns the delay before the given attempt (1-based).
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

// isTransient reports whether an embedding failure is worth retrying.
// Connection resets, timeouts, and 5xx responses are transient;
// context cancellation and 4xx responses are not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "EOF"):
		return true
	case strings.Contains(msg, "returned 5"):
		return true
	}
	return false
}
