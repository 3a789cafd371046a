package querycache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/querycache/codec"
	"github.com/unkn0wn-root/querycache/internal/wire"
)

// Loader performs the underlying read for a key. It runs detached from the
// caller's cancellation so a shared load survives any single caller leaving.
type Loader[V any] func(ctx context.Context) (V, error)

// PrefetchOptions tune Prefetch.
type PrefetchOptions struct {
	// StaleTime: an entry younger than this is left alone and the loader is
	// not called. The written entry is served by Get for at least this long.
	// 0 => always fetch. Loads are only shared between callers storing with
	// the same window, so a concurrent Get cannot drop it.
	StaleTime time.Duration
}

// Query is a typed view over a Client for one value type.
type Query[V any] struct {
	c     *Client
	codec codec.Codec[V]
}

func NewQuery[V any](c *Client, cd codec.Codec[V]) *Query[V] {
	return &Query[V]{c: c, codec: cd}
}

func (q *Query[V]) Client() *Client { return q.c }

// Get returns the cached value for key if it is present, not invalidated and
// within its freshness window. Otherwise it runs load, stores the result
// (unless key was invalidated meanwhile) and returns it. Concurrent misses
// share one load. Load errors are returned and never stored.
func (q *Query[V]) Get(ctx context.Context, key Key, load Loader[V]) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoader
	}
	if !q.c.enabled {
		return load(ctx)
	}

	if v, ok := q.cached(ctx, key, func(e wire.Entry) bool { return q.c.fresh(e, q.c.serveWindow(e)) }); ok {
		return v, nil
	}
	return q.load(ctx, key, load, 0)
}

// Prefetch populates key ahead of a Get. Loader errors are returned to the
// caller and nothing is stored.
func (q *Query[V]) Prefetch(ctx context.Context, key Key, load Loader[V], opts PrefetchOptions) error {
	if load == nil {
		return ErrNilLoader
	}
	if !q.c.enabled {
		return nil
	}
	if opts.StaleTime > 0 {
		if _, ok := q.cached(ctx, key, func(e wire.Entry) bool { return q.c.fresh(e, opts.StaleTime) }); ok {
			return nil
		}
	}
	_, err := q.load(ctx, key, load, opts.StaleTime)
	return err
}

// Peek returns the stored value for key without loading. Age is ignored;
// invalidated entries are not returned.
func (q *Query[V]) Peek(ctx context.Context, key Key) (V, bool, error) {
	var zero V
	if !q.c.enabled {
		return zero, false, nil
	}
	e, ok, err := q.c.read(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := q.codec.Decode(e.Payload)
	if err != nil {
		q.c.selfHeal(ctx, q.c.storageKey(key.String()), "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

// Set stores v under key as if it had just been loaded.
func (q *Query[V]) Set(ctx context.Context, key Key, v V) error {
	if !q.c.enabled {
		return nil
	}
	observed, err := q.c.snapshot(ctx, key)
	if err != nil {
		return err
	}
	payload, err := q.codec.Encode(v)
	if err != nil {
		return err
	}
	return q.c.write(ctx, key, payload, observed, 0)
}

// cached decodes a stored entry accepted by ok. Provider errors count as a miss.
func (q *Query[V]) cached(ctx context.Context, key Key, ok func(wire.Entry) bool) (V, bool) {
	var zero V
	e, hit, err := q.c.read(ctx, key)
	if err != nil {
		q.c.log.Warn("provider get error; loading", Fields{"key": key.String(), "err": err})
		return zero, false
	}
	if !hit || !ok(e) {
		return zero, false
	}
	v, err := q.codec.Decode(e.Payload)
	if err != nil {
		q.c.selfHeal(ctx, q.c.storageKey(key.String()), "value_decode")
		return zero, false
	}
	return v, true
}

func (q *Query[V]) load(ctx context.Context, key Key, load Loader[V], freshFor time.Duration) (V, error) {
	var zero V
	c := q.c
	sk := c.storageKey(key.String())
	lctx := context.WithoutCancel(ctx)

	// snapshot before loading: an invalidation landing during the load moves
	// a generation, the write below is skipped and later callers get a new
	// flight instead of joining this one
	observed, snapErr := c.snapshot(lctx, key)

	// written by the leader before its result is delivered
	leader := false
	ch := c.flights.DoChan(flightKey(sk, observed, freshFor), func() (any, error) {
		leader = true
		v, err := load(lctx)
		if err != nil {
			c.hooks.LoadFailed(sk, err)
			c.log.Debug("load failed", Fields{"key": key.String(), "err": err})
			return nil, err
		}
		if snapErr != nil {
			return v, nil
		}
		payload, err := q.codec.Encode(v)
		if err != nil {
			c.log.Warn("value encode failed; not stored", Fields{"key": key.String(), "err": err})
			return v, nil
		}
		if err := c.write(lctx, key, payload, observed, freshFor); err != nil {
			c.log.Warn("store failed", Fields{"key": key.String(), "err": err})
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if !leader {
			c.hooks.LoadShared(sk)
		}
		if r.Err != nil {
			return zero, r.Err
		}
		v, ok := r.Val.(V)
		if !ok {
			return zero, ErrTypeMismatch
		}
		return v, nil
	}
}

// flightKey scopes load sharing to callers that observed the same generations
// and store with the same freshness window. A nil gens (failed snapshot)
// groups the callers that cannot store.
func flightKey(sk string, gens []uint64, freshFor time.Duration) string {
	var b strings.Builder
	b.Grow(len(sk) + 8*len(gens) + 24)
	b.WriteString(sk)
	b.WriteByte('#')
	if gens == nil {
		b.WriteByte('?')
	}
	for i, g := range gens {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(g, 10))
	}
	b.WriteByte('#')
	b.WriteString(strconv.FormatInt(int64(freshFor), 10))
	return b.String()
}
