package circuit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arshadjafri/defi-risk-platform/pkg/utils/errors"
)

func failing(context.Context) error { return errors.Unavailable("down") }
func succeeding(context.Context) error { return nil }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", Config{MaxFailures: 3, Timeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, b.Execute(ctx, failing))
	}
	assert.Equal(t, StateOpen, b.State())

	// Open breaker fails fast without invoking the function.
	called := false
	err := b.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := NewBreaker("test", Config{MaxFailures: 1, Timeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)

	// The first probe after the timeout goes through and closes the
	// breaker on success.
	require.NoError(t, b.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewBreaker("test", Config{MaxFailures: 1, Timeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	time.Sleep(5 * time.Millisecond)

	require.Error(t, b.Execute(ctx, failing))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := NewBreaker("test", Config{MaxFailures: 2, Timeout: time.Hour})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.NoError(t, b.Execute(ctx, succeeding))
	require.Error(t, b.Execute(ctx, failing))

	// The success reset the failure count.
	assert.Equal(t, StateClosed, b.State())
}
