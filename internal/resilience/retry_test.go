package resilience

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	val, err := DoVal(context.Background(), Fixed(3, time.Millisecond), func(_ context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, NewTransientError(eris.New("flaky"), 503)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, attempts)
}

func TestDoVal_NonTransientFailsImmediately(t *testing.T) {
	attempts := 0
	_, err := DoVal(context.Background(), Fixed(3, time.Millisecond), func(_ context.Context) (string, error) {
		attempts++
		return "", eris.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := DoVal(context.Background(), Fixed(2, time.Millisecond), func(_ context.Context) (int, error) {
		attempts++
		return 0, NewTransientError(eris.New("always down"), 502)
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoVal_ShouldRetryOverride(t *testing.T) {
	cfg := Fixed(3, time.Millisecond)
	cfg.ShouldRetry = func(error) bool { return true }

	attempts := 0
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		attempts++
		return eris.New("not transient, retried anyway")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := DoVal(ctx, Fixed(5, 50*time.Millisecond), func(_ context.Context) (int, error) {
		attempts++
		cancel()
		return 0, NewTransientError(eris.New("down"), 503)
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var seen []int
	cfg := Fixed(3, time.Millisecond)
	cfg.OnRetry = func(attempt int, _ error) { seen = append(seen, attempt) }

	_, _ = DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		return 0, NewTransientError(eris.New("down"), 500)
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 503)))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(eris.New("read tcp: connection reset by peer")))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("parse failure")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}

func TestComputeDelay_Exponential(t *testing.T) {
	cfg := applyDefaults(RetryConfig{Delay: 10 * time.Millisecond, Multiplier: 2})
	assert.Equal(t, 10*time.Millisecond, computeDelay(0, cfg))
	assert.Equal(t, 20*time.Millisecond, computeDelay(1, cfg))
	assert.Equal(t, 40*time.Millisecond, computeDelay(2, cfg))
}

func TestComputeDelay_CappedAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{Delay: time.Second, Multiplier: 10, MaxDelay: 2 * time.Second})
	assert.Equal(t, 2*time.Second, computeDelay(5, cfg))
}
