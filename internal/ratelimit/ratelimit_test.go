package ratelimit

import (
	"testing"
	"time"

	"github.com/dprint/plugins/internal/clock"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	l := New(clk, Options{Limit: 2, Window: time.Second})

	require.True(t, l.Allow("127.0.0.1"))
	clk.Advance(100 * time.Millisecond)
	require.True(t, l.Allow("127.0.0.1"))
	require.False(t, l.Allow("127.0.0.1"))
	clk.Advance(500 * time.Millisecond)
	require.False(t, l.Allow("127.0.0.1"))
	clk.Advance(500 * time.Millisecond)
	require.True(t, l.Allow("127.0.0.1"))
	require.False(t, l.Allow("127.0.0.1"))
	clk.Advance(500 * time.Millisecond)
	require.True(t, l.Allow("127.0.0.1"))
	require.False(t, l.Allow("127.0.0.1"))
	require.True(t, l.Allow("127.0.0.2"))
}

func TestLimiterWindow(t *testing.T) {
	start := time.Unix(0, 0)
	clk := clock.NewFake(start)
	l := New(clk, Options{Limit: 2, Window: time.Second})

	require.True(t, l.Allow("host"))
	require.True(t, l.Allow("host"))
	require.False(t, l.Allow("host"))

	clk.Set(start.Add(600 * time.Millisecond))
	require.False(t, l.Allow("host"))

	// exactly one window later the oldest entry is still inside it
	clk.Set(start.Add(time.Second))
	require.False(t, l.Allow("host"))

	clk.Set(start.Add(1001 * time.Millisecond))
	require.True(t, l.Allow("host"))
}

func TestLimiterAfterIdle(t *testing.T) {
	start := time.Unix(0, 0)
	clk := clock.NewFake(start)
	l := New(clk, Options{Limit: 2, Window: time.Second})

	require.True(t, l.Allow("host"))
	require.True(t, l.Allow("host"))

	// both timestamps are stale; each check drops one and records itself
	clk.Set(start.Add(10 * time.Second))
	require.True(t, l.Allow("host"))
	require.True(t, l.Allow("host"))
	require.False(t, l.Allow("host"))
}
