// Package ratelimit limits expensive requests per client using token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// EndpointConfig is the limit for one endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket size; Limit when zero
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// AnalyzeEndpoints limits both analysis endpoints to limit runs per hour per client.
func AnalyzeEndpoints(limit, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/analyze", Method: "POST", Limit: limit, Window: time.Hour, Burst: burst},
		{Path: "/analyze/stream", Method: "POST", Limit: limit, Window: time.Hour, Burst: burst},
	}
}

// ParseIPList parses a comma-separated list of addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

// Info describes the limit applied to a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one bucket per client, endpoint and method.
type Limiter struct {
	config  Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup.
func NewLimiter(config Config) *Limiter {
	if config.DefaultWindow <= 0 {
		config.DefaultWindow = time.Minute
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = time.Hour
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow reports whether a request may proceed, consuming a token when it does.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}

	ep := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if ep == nil {
		ep = &EndpointConfig{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if ep.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	lim := l.bucketFor(clientID+":"+path+":"+method, ep, now)

	r := lim.ReserveN(now, 1)
	info := Info{Limit: ep.Limit}
	if delay := r.DelayFrom(now); !r.OK() || delay > 0 {
		r.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}
	info.Allowed = true
	info.Remaining = max(int(lim.TokensAt(now)), 0)
	return true, info
}

func (l *Limiter) bucketFor(key string, ep *EndpointConfig, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		burst := ep.Burst
		if burst <= 0 {
			burst = ep.Limit
		}
		every := ep.Window / time.Duration(ep.Limit)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b.limiter
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets idle for longer than the idle timeout.
func (l *Limiter) cleanup() {
	cutoff := l.now().Add(-l.config.IdleTimeout)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
