package throttle

import (
	"context"
	"sync"
	"time"
)

// WindowStore implements Store with an in-memory sliding window of
// request timestamps per client key. A client can never exceed the cap
// within any window-length interval. Idle keys are reclaimed by a
// janitor goroutine so the map does not grow without bound.
type WindowStore struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow

	limit        int
	window       time.Duration
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

// slidingWindow tracks admitted request timestamps for one client key.
type slidingWindow struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// WindowOption configures a WindowStore.
type WindowOption func(*WindowStore)

// WithIdleTTL sets how long an unused key survives before reclamation.
func WithIdleTTL(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval. Non-positive disables it.
func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// NewWindowStore creates a sliding-window store admitting up to limit
// requests per key within each trailing window.
func NewWindowStore(limit int, window time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		buckets:      make(map[string]*slidingWindow),
		limit:        limit,
		window:       window,
		idleTTL:      2 * window,
		cleanupEvery: window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow checks if a request is allowed and, if so, counts it.
func (s *WindowStore) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.buckets[key] = sw
	}
	sw.lastSeen = now
	sw.expire(now.Add(-s.window))

	if len(sw.timestamps) >= s.limit {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			Limit:      s.limit,
			RetryAfter: sw.timestamps[0].Add(s.window).Sub(now),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &Result{
		Allowed:   true,
		Remaining: s.limit - len(sw.timestamps),
		Limit:     s.limit,
	}, nil
}

// expire drops timestamps that fell out of the trailing window.
func (sw *slidingWindow) expire(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Cleanup removes keys that have been idle longer than the TTL.
func (s *WindowStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, sw := range s.buckets {
		if sw.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// StartJanitor starts a goroutine that reclaims idle keys periodically.
// Stop it by cancelling the context.
func (s *WindowStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
