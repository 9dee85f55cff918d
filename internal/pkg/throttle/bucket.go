package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BucketStore implements Store with one token bucket per client key on
// top of golang.org/x/time/rate. The bucket refills at cap/window and
// holds at most cap tokens, which approximates the sliding window with
// O(1) memory per key and no timestamp bookkeeping. Preferable when
// the cap is large.
type BucketStore struct {
	mu      sync.Mutex
	entries map[string]*bucketEntry

	limit        int
	rps          rate.Limit
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewBucketStore creates a token-bucket store admitting up to limit
// requests per key within each window.
func NewBucketStore(limit int, window time.Duration) *BucketStore {
	return &BucketStore{
		entries:      make(map[string]*bucketEntry),
		limit:        limit,
		rps:          rate.Limit(float64(limit) / window.Seconds()),
		idleTTL:      2 * window,
		cleanupEvery: window,
	}
}

// Allow checks if a request is allowed and, if so, consumes a token.
func (s *BucketStore) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()

	s.mu.Lock()
	ent, ok := s.entries[key]
	if !ok {
		ent = &bucketEntry{lim: rate.NewLimiter(s.rps, s.limit)}
		s.entries[key] = ent
	}
	ent.lastSeen = now
	lim := ent.lim
	s.mu.Unlock()

	if !lim.Allow() {
		res := lim.Reserve()
		retryAfter := res.Delay()
		res.Cancel()
		return &Result{
			Allowed:    false,
			Remaining:  0,
			Limit:      s.limit,
			RetryAfter: retryAfter,
		}, nil
	}

	return &Result{
		Allowed:   true,
		Remaining: int(lim.Tokens()),
		Limit:     s.limit,
	}, nil
}

// Cleanup removes keys that have been idle longer than the TTL.
func (s *BucketStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

// StartJanitor starts a goroutine that reclaims idle keys periodically.
func (s *BucketStore) StartJanitor(ctx context.Context) {
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
