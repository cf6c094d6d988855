package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/invalidation"
)

// Fetch returns the fresh cached value for key or loads it. Concurrent
// fetches of one key share a single load. Load errors are returned to every
// waiter and never cached.
//
// The shared load keeps the values of the first caller's ctx but not its
// cancellation, so one caller giving up does not fail the others; it is
// bounded by the load timeout instead. Each caller still stops waiting when
// its own ctx is done.
func Fetch[T any](ctx context.Context, c *QueryCache, key invalidation.Key, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if entry, ok := c.Get(key); ok && !entry.Stale {
		var v T
		if err := json.Unmarshal(entry.Data, &v); err == nil {
			c.hit()
			return v, nil
		}
		// Undecodable entries are reloaded.
		c.Delete(key)
	}
	c.miss()

	s := key.String()
	ch := c.group.DoChan(s, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		gen := c.begin(key)
		v, err := load(lctx)
		if err != nil {
			c.finish(key, gen, nil, false)
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			c.finish(key, gen, nil, false)
			return nil, fmt.Errorf("encode %s: %w", s, err)
		}
		c.finish(key, gen, data, true)
		return data, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	if res.Shared {
		slog.DebugContext(ctx, "Cache load shared", "key", s)
	}

	var v T
	if err := json.Unmarshal(res.Val.([]byte), &v); err != nil {
		return zero, fmt.Errorf("decode %s: %w", s, err)
	}
	return v, nil
}

func (c *QueryCache) hit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *QueryCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
