// Package ratelimit implements an approximate sliding window limiter keyed
// by client hostname.
package ratelimit

import (
	"sync"
	"time"

	"github.com/dprint/plugins/internal/cache"
	"github.com/dprint/plugins/internal/clock"
)

// maxTrackedKeys bounds the memory spent on distinct hostnames.
const maxTrackedKeys = 100_000

type Options struct {
	Limit  int
	Window time.Duration
}

// Limiter allows at most Limit events per key within Window.
//
// Each check trims at most the single oldest timestamp, so the window is
// only exact while checks arrive regularly and with a monotonic clock.
type Limiter struct {
	mu         sync.Mutex
	clock      clock.Clock
	timestamps *cache.Cache[string, []time.Time]
	limit      int
	window     time.Duration
}

func New(c clock.Clock, opts Options) *Limiter {
	return &Limiter{
		clock:      c,
		timestamps: cache.New[string, []time.Time](maxTrackedKeys),
		limit:      opts.Limit,
		window:     opts.Window,
	}
}

// Allow records an event for key and reports whether it is within the
// limit. Rejected events are not recorded.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	timestamps, _ := l.timestamps.Get(key)
	if len(timestamps) > 0 && now.Sub(timestamps[0]) > l.window {
		timestamps = timestamps[1:]
	}

	allowed := len(timestamps) < l.limit
	if allowed {
		timestamps = append(timestamps, now)
	}
	l.timestamps.Set(key, timestamps)
	return allowed
}
