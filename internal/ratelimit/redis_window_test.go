package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisWindow(t *testing.T) (*RedisWindow, *clock.FakeClock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.DefaultLimitsConfig()
	return NewRedisWindow(client, clk, func() Ceilings { return cfg }), clk, mr
}

func TestRedisWindowCeilingThenRecovery(t *testing.T) {
	w, clk, _ := newTestRedisWindow(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		d, err := w.Check(ctx, "group-1", config.ActionAdminCommand)
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d", i+1)
		assert.Equal(t, 20, d.Limit)
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

func TestRedisWindowDeniedAttemptsAreNotRecorded(t *testing.T) {
	w, _, mr := newTestRedisWindow(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		d, err := w.Check(ctx, "g", config.ActionPatternTest)
		require.NoError(t, err)
		assert.Equal(t, i < 10, d.Allowed, "attempt %d", i+1)
	}

	members, err := mr.ZMembers("ratelimit:pattern_test:g")
	require.NoError(t, err)
	assert.Len(t, members, 10)
	assert.Equal(t, Window, mr.TTL("ratelimit:pattern_test:g"))
}

func TestRedisWindowKeysAreIndependent(t *testing.T) {
	w, _, _ := newTestRedisWindow(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := w.Check(ctx, "g1", config.ActionPatternTest)
		require.NoError(t, err)
	}
	d, err := w.Check(ctx, "g1", config.ActionPatternTest)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = w.Check(ctx, "g2", config.ActionPatternTest)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = w.Check(ctx, "g1", config.ActionAdminCommand)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisWindowErrors(t *testing.T) {
	w, _, mr := newTestRedisWindow(t)
	ctx := context.Background()

	_, err := w.Check(ctx, " ", config.ActionParsePayment)
	assert.ErrorIs(t, err, ErrEmptyKey)

	var missing *RedisWindow
	_, err = missing.Check(ctx, "g", config.ActionParsePayment)
	assert.Error(t, err)
	assert.Nil(t, NewRedisWindow(nil, clock.NewSystemClock(), nil))

	mr.Close()
	_, err = w.Check(ctx, "g", config.ActionParsePayment)
	assert.Error(t, err)
}
