package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellsecdev/hellsec.dev/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, 500*time.Millisecond, p.Initial)
	assert.Equal(t, 5*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial, "initial should be clamped to max")
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{Mode: config.RetryBackoffLinear, Initial: "10ms", Max: "bogus", MaxRetries: 0})
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, 10*time.Millisecond, p.Initial)
	assert.Equal(t, 5*time.Second, p.Max, "unparseable max falls back to default")
	assert.Equal(t, 0, p.MaxRetries)
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 100*time.Millisecond, fixed.Delay(i), "fixed retry %d", i)
	}

	linear := NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	exp := NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5)
	cases := []struct {
		policy Policy
		retry  int
		want   time.Duration
	}{
		{linear, 1, 100 * time.Millisecond},
		{linear, 2, 200 * time.Millisecond},
		{linear, 3, 250 * time.Millisecond},
		{exp, 1, 50 * time.Millisecond},
		{exp, 2, 100 * time.Millisecond},
		{exp, 3, 160 * time.Millisecond},
		{exp, 64, 160 * time.Millisecond},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.policy.Delay(c.retry), "%s retry %d", c.policy.Mode, c.retry)
	}

	assert.Zero(t, linear.Delay(0))
	assert.Zero(t, linear.Delay(-1))
}

func TestNewPolicyKeepsDefaults(t *testing.T) {
	p := NewPolicy("weird", 0, -time.Second, -1)
	assert.Equal(t, DefaultPolicy(), p)
}

func fastPolicy(retries int) Policy {
	return NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var seen []int
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(retry int, _ error) { seen = append(seen, retry) })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return errors.New("still down")
	}, nil)

	require.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("404")
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return Permanent(sentinel)
	}, nil)

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestIsPermanent(t *testing.T) {
	err := errors.New("gone")
	assert.True(t, IsPermanent(Permanent(err)))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", Permanent(err))))
	assert.False(t, IsPermanent(err))
	assert.False(t, IsPermanent(nil))
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	err := Do(ctx, p, func(context.Context) error {
		cancel()
		return errors.New("boom")
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
}
