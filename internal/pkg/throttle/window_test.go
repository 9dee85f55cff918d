package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type WindowStoreSuite struct {
	suite.Suite
	store *WindowStore
	ctx   context.Context
}

func TestWindowStoreSuite(t *testing.T) {
	suite.Run(t, new(WindowStoreSuite))
}

func (s *WindowStoreSuite) SetupTest() {
	s.store = NewWindowStore(testLimit, testWindow)
	s.ctx = context.Background()
}

func (s *WindowStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "client:first")
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("requests up to the cap allowed", func() {
		var result *Result
		var err error
		for _j := 0; _j < testLimit; _j++ {
			result, err = s.store.Allow(s.ctx, "client:cap")
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over the cap rejected", func() {
		for _j := 0; _j < testLimit; _j++ {
			_, err := s.store.Allow(s.ctx, "client:over")
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "client:over")
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Greater(result.RetryAfter, time.Duration(0))
	})

	s.Run("a different client is unaffected", func() {
		for _j := 0; _j < testLimit+5; _j++ {
			_, err := s.store.Allow(s.ctx, "client:noisy")
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "client:quiet")
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("requests admitted again after the window rolls over", func() {
		for _j := 0; _j < testLimit; _j++ {
			_, err := s.store.Allow(s.ctx, "client:rollover")
			require.NoError(s.T(), err)
		}

		// Age every admitted timestamp out of the window
		s.store.mu.Lock()
		sw := s.store.buckets["client:rollover"]
		for i := range sw.timestamps {
			sw.timestamps[i] = sw.timestamps[i].Add(-2 * testWindow)
		}
		s.store.mu.Unlock()

		result, err := s.store.Allow(s.ctx, "client:rollover")
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *WindowStoreSuite) TestCleanup() {
	_, err := s.store.Allow(s.ctx, "client:stale")
	s.Require().NoError(err)
	_, err = s.store.Allow(s.ctx, "client:fresh")
	s.Require().NoError(err)

	s.store.mu.Lock()
	s.store.buckets["client:stale"].lastSeen = time.Now().Add(-3 * testWindow)
	s.store.mu.Unlock()

	s.store.Cleanup()

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.NotContains(s.store.buckets, "client:stale")
	s.Contains(s.store.buckets, "client:fresh")
}

func TestWindowStoreConcurrentAccess(t *testing.T) {
	store := NewWindowStore(100, time.Minute)
	ctx := context.Background()

	done := make(chan struct{})
	for _i := 0; _i < 8; _i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for _i := 0; _i < 50; _i++ {
				_, err := store.Allow(ctx, "client:shared")
				require.NoError(t, err)
			}
		}()
	}
	for _i := 0; _i < 8; _i++ {
		<-done
	}

	// 400 attempts against a cap of 100: exactly the cap was admitted
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.buckets["client:shared"].timestamps, 100)
}
