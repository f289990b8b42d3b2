package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/pkg/errors"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.ErrUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return errors.ErrUnavailable
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 3, InitialDelay: 10 * time.Millisecond}, func(ctx context.Context) error {
		calls++
		return errors.ErrUnavailable
	})

	require.Error(t, err)
	// First attempt runs without delay only if context is still alive
	assert.LessOrEqual(t, calls, 1)
}

func TestPolicy_ExponentialDelay(t *testing.T) {
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
	}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 400*time.Millisecond, p.Delay(4))
}

func TestPolicy_LinearDelay(t *testing.T) {
	p := Policy{
		MaxAttempts:  4,
		InitialDelay: 50 * time.Millisecond,
		Strategy:     StrategyLinear,
	}

	assert.Equal(t, 50*time.Millisecond, p.Delay(2))
	assert.Equal(t, 100*time.Millisecond, p.Delay(3))
	assert.Equal(t, 150*time.Millisecond, p.Delay(4))
}

func TestPolicy_MaxDelayCap(t *testing.T) {
	p := Policy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
		Multiplier:   10.0,
		Strategy:     StrategyExponential,
	}

	assert.Equal(t, 2*time.Second, p.Delay(5))
}

func TestPolicy_JitterStaysWithinBounds(t *testing.T) {
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		Strategy:     StrategyConstant,
		JitterPct:    0.5,
	}

	for i := 0; i < 20; i++ {
		d := p.Delay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
