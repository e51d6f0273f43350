package llm

import (
	"context"
	"errors"
	"regexp"
	"time"

	"google.golang.org/api/googleapi"
)

// Default retry envelope for one generator call.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 400 * time.Millisecond
)

var transientStatuses = map[int]bool{
	408: true, 409: true, 425: true, 429: true,
	500: true, 502: true, 503: true, 504: true,
}

var transientMessageRegex = regexp.MustCompile(`(?i)time[d]?\s?out|deadline exceeded|rate.?limit|too many requests|resource.?exhausted|quota|econnreset|connection reset|connection refused|socket hang up|broken pipe|eof|temporar(?:y|ily) unavailable|service unavailable|network`)

// StatusOf returns the HTTP status an error carries, or 0.
func StatusOf(err error) int {
	var te *TransientError
	if errors.As(err, &te) && te.Status != 0 {
		return te.Status
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return 0
}

// IsTransient reports whether a generator error is worth retrying. Malformed output,
// configuration errors and caller cancellation never are.
func IsTransient(err error) bool {
	if err == nil || IsFatalOutput(err) || errors.Is(err, context.Canceled) {
		return false
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return false
	}
	if status := StatusOf(err); status != 0 {
		return transientStatuses[status]
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return transientMessageRegex.MatchString(err.Error())
}

// RetryPolicy retries transient failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// Sleep waits between attempts; tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each backoff.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetryPolicy returns 3 attempts with a 400ms backoff that doubles each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		Sleep:          sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff returns the wait before the given retry (1-based).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	return p.InitialBackoff << (retry - 1)
}

// Do runs fn until it succeeds, fails with a non-transient error, or runs out of attempts.
// It returns the number of attempts made. Exhausted transient failures come back as
// *RetryExhaustedError; anything else is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !IsTransient(lastErr) {
			return attempt, lastErr
		}
		if attempt == maxAttempts {
			break
		}
		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, lastErr)
		}
		if err := sleep(ctx, wait); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, &RetryExhaustedError{Attempts: maxAttempts, Cause: lastErr}
}

// Retry wraps a generator call in the policy and reports how many attempts it took.
func Retry(ctx context.Context, p RetryPolicy, g Generator, req Request) (Response, int, error) {
	var resp Response
	attempts, err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = g.Generate(ctx, req)
		return err
	})
	return resp, attempts, err
}
