package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/paysignal/internal/clock"
)

type bucket struct {
	mu   sync.Mutex
	hits []time.Time
	dead bool
}

// prune drops attempts that are a full Window old or older.
func (b *bucket) prune(now time.Time) {
	i := 0
	for i < len(b.hits) && now.Sub(b.hits[i]) >= Window {
		i++
	}
	if i > 0 {
		b.hits = append(b.hits[:0], b.hits[i:]...)
	}
}

// SlidingWindow is the in-process limiter. Each bucket has its own mutex so
// concurrent checks on one key serialize while different keys never contend.
type SlidingWindow struct {
	clock    clock.Clock
	ceilings func() Ceilings
	buckets  sync.Map // string -> *bucket
}

func NewSlidingWindow(clk clock.Clock, ceilings func() Ceilings) *SlidingWindow {
	return &SlidingWindow{clock: clk, ceilings: ceilings}
}

func (w *SlidingWindow) Check(_ context.Context, tenantKey, action string) (Decision, error) {
	key, err := bucketKey(tenantKey, action)
	if err != nil {
		return Decision{}, err
	}
	limit := w.ceilings().Ceiling(action)

	for {
		value, _ := w.buckets.LoadOrStore(key, &bucket{})
		b := value.(*bucket)

		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}
		now := w.clock.Now()
		b.prune(now)

		if len(b.hits) >= limit {
			d := Decision{Allowed: false, Limit: limit, Remaining: 0, ResetIn: resetAfter(b.hits[0], now)}
			b.mu.Unlock()
			return d, nil
		}

		b.hits = append(b.hits, now)
		d := Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - len(b.hits),
			ResetIn:   resetAfter(b.hits[0], now),
		}
		b.mu.Unlock()
		return d, nil
	}
}

// Sweep removes buckets with no attempts left in the window.
func (w *SlidingWindow) Sweep() int {
	now := w.clock.Now()
	removed := 0
	w.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		b.prune(now)
		if len(b.hits) == 0 {
			b.dead = true
			w.buckets.Delete(key)
			removed++
		}
		b.mu.Unlock()
		return true
	})
	return removed
}
