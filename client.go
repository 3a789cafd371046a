package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	gen "github.com/unkn0wn-root/querycache/genstore"
	"github.com/unkn0wn-root/querycache/internal/wire"
	pr "github.com/unkn0wn-root/querycache/provider"
)

// Client is the shared cache handle. It is safe for concurrent use; distinct
// keys never coordinate with each other, reads and loads of the same key
// are serialized through one in-flight load.
type Client struct {
	ns             string
	provider       pr.Provider
	gen            gen.GenStore
	log            Logger
	hooks          Hooks
	enabled        bool
	ttl            time.Duration
	staleTime      time.Duration
	computeSetCost SetCostFunc
	now            func() time.Time

	flights   singleflight.Group
	closeOnce sync.Once
}

func (c *Client) Enabled() bool     { return c.enabled }
func (c *Client) Namespace() string { return c.ns }
func (c *Client) Logger() Logger    { return c.log }

// Close releases the generation store and the provider.
func (c *Client) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.gen.Close(ctx) // best effort
		err = c.provider.Close(ctx)
	})
	return err
}

// Invalidate marks key and every key extending it as stale. The next Get for
// any of them runs its loader. Loads already in flight still answer the
// callers waiting on them but their results are not kept; a Get issued after
// Invalidate returns starts its own load.
//
// A failed generation bump is reported: the delete only removes key's own
// entry, so entries under longer keys would stay valid. A failed delete alone
// is not, the bumped generation already rejects the entry.
func (c *Client) Invalidate(ctx context.Context, key Key) error {
	if !c.enabled {
		return nil
	}
	sk := c.storageKey(key.String())

	newGen, bumpErr := c.gen.Bump(ctx, sk)
	if bumpErr != nil {
		c.hooks.GenBumpError(sk, bumpErr)
		c.log.Error("gen bump error", Fields{"key": key.String(), "err": bumpErr})
	}
	delErr := c.provider.Del(ctx, sk)

	if bumpErr != nil {
		if delErr != nil {
			c.hooks.InvalidateOutage(key.String(), bumpErr, delErr)
		}
		return &InvalidateError{Key: key.String(), BumpErr: bumpErr, DelErr: delErr}
	}
	c.log.Debug("invalidated", Fields{"key": key.String(), "gen": newGen})
	return nil
}

// InvalidatePrefix invalidates every key of operation op. A failed generation
// bump is always reported here: the delete cannot reach the op's entries.
func (c *Client) InvalidatePrefix(ctx context.Context, op string) error {
	return c.Invalidate(ctx, Key{Op: op})
}

// InvalidateAll invalidates each key and joins the failures.
func (c *Client) InvalidateAll(ctx context.Context, keys ...Key) error {
	var errs []error
	for _, k := range keys {
		if err := c.Invalidate(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) storageKey(rendered string) string {
	return "q:" + c.ns + ":" + rendered
}

// snapshot returns the current generation of every prefix of key, shortest first.
func (c *Client) snapshot(ctx context.Context, key Key) ([]uint64, error) {
	ps := key.prefixes()
	sks := make([]string, len(ps))
	for i, p := range ps {
		sks[i] = c.storageKey(p)
	}
	m, err := c.gen.SnapshotMany(ctx, sks)
	if err != nil {
		c.hooks.GenSnapshotError(len(sks), err)
		c.log.Warn("gen snapshot error", Fields{"key": key.String(), "err": err})
		return nil, err
	}
	out := make([]uint64, len(sks))
	for i, k := range sks {
		out[i] = m[k]
	}
	return out, nil
}

// read returns the stored entry for key if its generations are all current.
// Corrupt and outdated entries are deleted. Freshness is the caller's call.
func (c *Client) read(ctx context.Context, key Key) (wire.Entry, bool, error) {
	sk := c.storageKey(key.String())
	raw, ok, err := c.provider.Get(ctx, sk)
	if err != nil || !ok {
		return wire.Entry{}, false, err
	}
	e, err := wire.Decode(raw)
	if err != nil {
		c.selfHeal(ctx, sk, "corrupt")
		return wire.Entry{}, false, nil
	}
	cur, err := c.snapshot(ctx, key)
	if err != nil {
		// cannot prove the entry current; treat as a miss but keep it
		return wire.Entry{}, false, nil
	}
	if !equalGens(cur, e.Gens) {
		c.selfHeal(ctx, sk, "gen_mismatch")
		return wire.Entry{}, false, nil
	}
	return e, true, nil
}

// write stores payload under key iff the generations observed before the load
// are still current.
func (c *Client) write(ctx context.Context, key Key, payload []byte, observed []uint64, freshFor time.Duration) error {
	sk := c.storageKey(key.String())
	cur, err := c.snapshot(ctx, key)
	if err != nil {
		return err
	}
	if !equalGens(cur, observed) {
		c.hooks.StaleWriteSkipped(sk)
		c.log.Debug("store skipped (invalidated during load)", Fields{"key": key.String()})
		return nil
	}
	raw, err := wire.Encode(wire.Entry{
		Gens:      observed,
		FetchedAt: c.now().UnixNano(),
		FreshFor:  int64(freshFor),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	ok, err := c.provider.Set(ctx, sk, raw, c.computeSetCost(sk, raw), c.ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.hooks.ProviderSetRejected(sk)
		c.log.Debug("store rejected by provider (pressure)", Fields{"key": key.String()})
	}
	return nil
}

// fresh reports whether e may be served without a refetch under window.
// window 0 means no age limit.
func (c *Client) fresh(e wire.Entry, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	age := c.now().Sub(time.Unix(0, e.FetchedAt))
	return age < window
}

// serveWindow is the freshness window Get applies: the client default,
// widened by a longer window the entry was prefetched with.
func (c *Client) serveWindow(e wire.Entry) time.Duration {
	if c.staleTime == 0 {
		return 0
	}
	if w := time.Duration(e.FreshFor); w > c.staleTime {
		return w
	}
	return c.staleTime
}

func (c *Client) selfHeal(ctx context.Context, sk, reason string) {
	_ = c.provider.Del(ctx, sk)
	c.hooks.SelfHeal(sk, reason)
}

func equalGens(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
