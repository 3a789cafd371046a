package querycache

import (
	"fmt"
	"time"

	gen "github.com/unkn0wn-root/querycache/genstore"
	pr "github.com/unkn0wn-root/querycache/provider"
	"github.com/unkn0wn-root/querycache/provider/memory"
)

// SetCostFunc reports the cost of storing raw under key. Only cost-aware
// providers (Ristretto) use it.
type SetCostFunc func(key string, raw []byte) int64

// ByteCost charges an entry its encoded size, so Ristretto's MaxCost becomes
// a byte budget.
func ByteCost(_ string, raw []byte) int64 { return int64(len(raw)) }

// Options configure a Client. Only Namespace is required.
type Options struct {
	Namespace string // isolates keys when a provider is shared, e.g. "libctl"

	Provider pr.Provider  // nil => in-memory LRU (provider/memory)
	GenStore gen.GenStore // nil => LocalGenStore (in-process)
	Logger   Logger       // nil => NopLogger
	Hooks    Hooks        // nil => NopHooks

	// DefaultTTL bounds how long an unused entry is kept by the provider.
	// 0 => 10m.
	DefaultTTL time.Duration

	// StaleTime is how long a stored result is served without refetching.
	// 0 => until invalidated. Prefetch may extend it per entry.
	StaleTime time.Duration

	CleanupInterval time.Duration // local gen cleanup; 0 => 1h
	GenRetention    time.Duration // local gen retention; 0 => 30d; must exceed DefaultTTL
	MaxItems        int           // default provider capacity; 0 => provider default

	ComputeSetCost SetCostFunc      // nil => every entry costs 1
	Disabled       bool             // every Get calls its loader; nothing is stored
	Now            func() time.Time // clock; nil => time.Now
}

// New builds the process-wide cache handle.
func New(opts Options) (*Client, error) {
	if opts.Namespace == "" {
		return nil, ErrNamespaceRequired
	}

	c := &Client{
		ns:      opts.Namespace,
		enabled: !opts.Disabled,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.ttl = coalesce(opts.DefaultTTL, defaultTTL)
	c.staleTime = opts.StaleTime
	if c.staleTime < 0 {
		return nil, fmt.Errorf("querycache: negative StaleTime %v", c.staleTime)
	}

	sweep := coalesce(opts.CleanupInterval, defaultSweep)
	retention := coalesce(opts.GenRetention, defaultGenRetention)
	if opts.GenStore == nil && retention <= c.ttl {
		// a forgotten generation reads as 0 and could revive an entry
		// stored before the first bump
		return nil, fmt.Errorf("querycache: GenRetention (%v) must exceed DefaultTTL (%v)", retention, c.ttl)
	}

	c.computeSetCost = opts.ComputeSetCost
	if c.computeSetCost == nil {
		c.computeSetCost = func(string, []byte) int64 { return 1 }
	}
	c.now = opts.Now
	if c.now == nil {
		c.now = time.Now
	}

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = gen.NewLocalGenStore(sweep, retention)
	}
	if opts.Provider != nil {
		c.provider = opts.Provider
	} else {
		c.provider = memory.New(memory.Config{MaxItems: opts.MaxItems, TTL: c.ttl})
	}
	return c, nil
}
