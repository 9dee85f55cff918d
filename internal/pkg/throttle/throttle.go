// Package throttle tracks request volume per client key over a
// trailing time window and decides whether to admit further traffic.
package throttle

import (
	"context"
	"time"
)

// Result is the outcome of an admission check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is the number of requests left in the current window.
	Remaining int
	// Limit is the configured per-window cap.
	Limit int
	// RetryAfter is how long a rejected client should wait. Zero when
	// the store has no recommendation.
	RetryAfter time.Duration
}

// Store decides whether a request from the given client key is
// admitted. Implementations must be safe for concurrent use.
type Store interface {
	Allow(ctx context.Context, key string) (*Result, error)
}
