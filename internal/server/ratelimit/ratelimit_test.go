package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(config Config) (*Limiter, *time.Time) {
	l := NewLimiter(config)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/runs", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/runs", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
}

func TestLimiter_Refill(t *testing.T) {
	l, now := newTestLimiter(Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("c", "/runs", "GET")
	l.Allow("c", "/runs", "GET")
	allowed, _ := l.Allow("c", "/runs", "GET")
	require.False(t, allowed)

	*now = now.Add(30 * time.Second)
	allowed, _ = l.Allow("c", "/runs", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/runs", "GET")
	assert.False(t, allowed)
}

func TestLimiter_AnalyzeEndpoints(t *testing.T) {
	l, _ := newTestLimiter(Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: AnalyzeEndpoints(10, 2),
	})
	defer l.Stop()

	for i := 0; i < 2; i++ {
		allowed, info := l.Allow("c", "/analyze", "POST")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, info := l.Allow("c", "/analyze", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 6*time.Minute, info.RetryAfter)

	// other clients and endpoints have their own buckets
	allowed, _ = l.Allow("other", "/analyze", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("c", "/analyze/stream", "POST")
	assert.True(t, allowed)
}

func TestLimiter_HealthAndMetricsUnlimited(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = l.Allow("c", "/metrics", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_WhitelistAndDisabled(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, DefaultLimit: 1, Whitelist: ParseIPList("10.0.0.1, 10.0.0.2")})
	defer l.Stop()
	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.2", "/runs", "GET")
		assert.True(t, allowed)
	}

	off, _ := newTestLimiter(Config{Enabled: false, DefaultLimit: 1})
	defer off.Stop()
	for i := 0; i < 5; i++ {
		allowed, _ := off.Allow("c", "/runs", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer l.Stop()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/runs", "GET"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(50), allowed.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := newTestLimiter(Config{Enabled: true, DefaultLimit: 5, IdleTimeout: time.Minute})
	defer l.Stop()

	l.Allow("old", "/runs", "GET")
	*now = now.Add(2 * time.Minute)
	l.Allow("fresh", "/runs", "GET")
	l.cleanup()

	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "fresh:/runs:GET")
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/analyze", Method: "POST", Limit: 10},
		{Path: "/runs/", Method: "DELETE", Limit: 20},
	}
	assert.Equal(t, 10, MatchEndpoint("/analyze", "POST", configs).Limit)
	assert.Equal(t, 20, MatchEndpoint("/runs/abc", "DELETE", configs).Limit)
	assert.Nil(t, MatchEndpoint("/analyze", "GET", configs))
	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
}
