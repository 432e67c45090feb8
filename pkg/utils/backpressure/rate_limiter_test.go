package backpressure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowConsumesBurst(t *testing.T) {
	tb := NewTokenBucketLimiter(1, 3)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestAllowNRejectsOversize(t *testing.T) {
	tb := NewTokenBucketLimiter(10, 5)

	assert.True(t, tb.AllowN(5))
	assert.False(t, tb.AllowN(1))
}

func TestTokensRefill(t *testing.T) {
	tb := NewTokenBucketLimiter(100, 1)

	require.True(t, tb.Allow())
	require.False(t, tb.Allow())

	assert.Eventually(t, tb.Allow, time.Second, 5*time.Millisecond)
}

func TestWaitNTooLarge(t *testing.T) {
	tb := NewTokenBucketLimiter(10, 2)
	err := tb.WaitN(context.Background(), 3)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucketLimiter(0.001, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultsApplied(t *testing.T) {
	tb := NewTokenBucketLimiter(-1, 0)
	assert.Equal(t, 1.0, tb.Limit())
	assert.Equal(t, 1, tb.Burst())
}
