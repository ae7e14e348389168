package cache

import (
	"context"
	"time"

	"github.com/dprint/plugins/internal/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type expirableItem[V any] struct {
	value  V
	expiry time.Time
}

// Expiring is an LRU cache whose entries expire ttl after they were stored.
// An entry is stale once the clock is strictly after its expiry time.
type Expiring[V any] struct {
	inner *Cache[string, expirableItem[V]]
	ttl   time.Duration
	clock clock.Clock
	log   logrus.FieldLogger
	group singleflight.Group
}

func NewExpiring[V any](size int, ttl time.Duration, c clock.Clock, log logrus.FieldLogger) *Expiring[V] {
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Expiring[V]{
		inner: New[string, expirableItem[V]](size),
		ttl:   ttl,
		clock: c,
		log:   log,
	}
}

// Get returns the value for key. Stale entries are dropped and reported as
// missing.
func (e *Expiring[V]) Get(key string) (V, bool) {
	item, ok := e.inner.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if e.clock.Now().After(item.expiry) {
		e.inner.Remove(key)
		var zero V
		return zero, false
	}
	return item.value, true
}

func (e *Expiring[V]) Set(key string, value V) {
	e.inner.Set(key, expirableItem[V]{
		value:  value,
		expiry: e.clock.Now().Add(e.ttl),
	})
}

func (e *Expiring[V]) Remove(key string) {
	e.inner.Remove(key)
}

// GetOrSet returns the fresh cached value for key or calls create to
// replace it. If create fails while a stale value is still held, the error
// is logged and the stale value is returned instead. Concurrent calls for
// the same key share a single create call, which runs detached from the
// cancellation of whichever caller started it. A caller whose ctx is done
// stops waiting and gets ctx.Err().
func (e *Expiring[V]) GetOrSet(ctx context.Context, key string, create func(ctx context.Context) (V, error)) (V, error) {
	item, found := e.inner.Get(key)
	if found && !e.clock.Now().After(item.expiry) {
		return item.value, nil
	}

	ch := e.group.DoChan(key, func() (any, error) {
		v, err := create(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		e.Set(key, v)
		return v, nil
	})
	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if found {
				e.log.WithError(res.Err).WithField("key", key).Error("updating cache failed, using old value")
				return item.value, nil
			}
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}
