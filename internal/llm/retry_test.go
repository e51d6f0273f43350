package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func recordingPolicy(waits *[]time.Duration) RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429 status", &TransientError{Status: 429, Message: "slow down"}, true},
		{"googleapi 503", fmt.Errorf("call: %w", &googleapi.Error{Code: 503}), true},
		{"googleapi 400", &googleapi.Error{Code: 400, Message: "bad request"}, false},
		{"googleapi 425", &googleapi.Error{Code: 425}, true},
		{"timeout message", errors.New("request timed out"), true},
		{"rate limit message", errors.New("Rate limit exceeded"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"parse error", &ParseError{Message: "network of braces"}, false},
		{"schema error", &SchemaError{Message: "timeout field wrong"}, false},
		{"config error", &ConfigError{Message: "missing key"}, false},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("invalid argument"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryPolicy_BackoffDoubles(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 400*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 800*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 1600*time.Millisecond, p.Backoff(3))
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	var waits []time.Duration
	calls := 0
	g := GeneratorFunc(func(context.Context, Request) (Response, error) {
		calls++
		if calls < 3 {
			return Response{}, &TransientError{Status: 503, Message: "unavailable"}
		}
		return Response{Text: `{"ok":true}`}, nil
	})

	resp, attempts, err := Retry(context.Background(), recordingPolicy(&waits), g, Request{})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, waits)
}

func TestRetry_Exhausted(t *testing.T) {
	var waits []time.Duration
	calls := 0
	g := GeneratorFunc(func(context.Context, Request) (Response, error) {
		calls++
		return Response{}, errors.New("dial tcp: i/o timeout")
	})

	_, attempts, err := Retry(context.Background(), recordingPolicy(&waits), g, Request{})

	var re *RetryExhaustedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Attempts)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Len(t, waits, 2)
}

func TestRetry_FatalNotRetried(t *testing.T) {
	var waits []time.Duration
	calls := 0
	fatal := &googleapi.Error{Code: 400, Message: "invalid schema"}
	g := GeneratorFunc(func(context.Context, Request) (Response, error) {
		calls++
		return Response{}, fatal
	})

	_, attempts, err := Retry(context.Background(), recordingPolicy(&waits), g, Request{})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultRetryPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	g := GeneratorFunc(func(context.Context, Request) (Response, error) {
		return Response{}, &TransientError{Status: 429}
	})

	_, attempts, err := Retry(ctx, p, g, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetry_OnRetryHook(t *testing.T) {
	var seen []int
	p := DefaultRetryPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	p.OnRetry = func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) }

	_, err := p.Do(context.Background(), func(context.Context) error {
		return &TransientError{Status: 500}
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}
