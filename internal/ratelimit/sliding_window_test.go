package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWindow(t *testing.T) (*SlidingWindow, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.DefaultLimitsConfig()
	return NewSlidingWindow(clk, func() Ceilings { return cfg }), clk
}

func TestSlidingWindowCeilingThenRecovery(t *testing.T) {
	w, clk := newTestWindow(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		d, err := w.Check(ctx, "group-1", config.ActionAdminCommand)
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d", i+1)
		assert.Equal(t, 20-(i+1), d.Remaining)
		clk.Advance(time.Second)
	}

	d, err := w.Check(ctx, "group-1", config.ActionAdminCommand)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 40*time.Second, d.ResetIn)

	clk.Advance(Window)
	d, err = w.Check(ctx, "group-1", config.ActionAdminCommand)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 19, d.Remaining)
}

func TestSlidingWindowDeniedAttemptsAreNotRecorded(t *testing.T) {
	w, clk := newTestWindow(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := w.Check(ctx, "g", config.ActionPatternTest)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		d, err := w.Check(ctx, "g", config.ActionPatternTest)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	}

	clk.Advance(Window)
	d, err := w.Check(ctx, "g", config.ActionPatternTest)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 9, d.Remaining)
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	w, _ := newTestWindow(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := w.Check(ctx, "a", config.ActionPatternTest)
		require.NoError(t, err)
	}
	denied, err := w.Check(ctx, "a", config.ActionPatternTest)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	other, err := w.Check(ctx, "b", config.ActionPatternTest)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	sameTenant, err := w.Check(ctx, "a", config.ActionParsePayment)
	require.NoError(t, err)
	assert.True(t, sameTenant.Allowed)
	assert.Equal(t, 99, sameTenant.Remaining)
}

func TestSlidingWindowUnlistedActionUsesDefault(t *testing.T) {
	w, _ := newTestWindow(t)
	d, err := w.Check(context.Background(), "g", "export")
	require.NoError(t, err)
	assert.Equal(t, 50, d.Limit)
}

func TestSlidingWindowRejectsEmptyKey(t *testing.T) {
	w, _ := newTestWindow(t)
	_, err := w.Check(context.Background(), " ", config.ActionParsePayment)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestSlidingWindowConcurrentChecksNeverOvercount(t *testing.T) {
	w, _ := newTestWindow(t)
	ctx := context.Background()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := w.Check(ctx, "busy", config.ActionParsePayment)
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowed.Load())
}

func TestSlidingWindowSweep(t *testing.T) {
	w, clk := newTestWindow(t)
	ctx := context.Background()

	_, err := w.Check(ctx, "a", config.ActionParsePayment)
	require.NoError(t, err)
	_, err = w.Check(ctx, "b", config.ActionParsePayment)
	require.NoError(t, err)

	assert.Equal(t, 0, w.Sweep())

	clk.Advance(Window)
	assert.Equal(t, 2, w.Sweep())

	d, err := w.Check(ctx, "a", config.ActionParsePayment)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 99, d.Remaining)
}

func TestNoopAllowsEverything(t *testing.T) {
	l := NewNoop()
	for i := 0; i < 1000; i++ {
		d, err := l.Check(context.Background(), "g", config.ActionPatternTest)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
}
