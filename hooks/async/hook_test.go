package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/querycache"
)

type countingHooks struct {
	querycache.NopHooks
	mu      sync.Mutex
	heals   int
	failed  int
	outages int
	block   chan struct{}
}

func (c *countingHooks) SelfHeal(string, string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.heals++
	c.mu.Unlock()
}

func (c *countingHooks) LoadFailed(string, error) {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

func (c *countingHooks) InvalidateOutage(string, error, error) {
	c.mu.Lock()
	c.outages++
	c.mu.Unlock()
}

func TestDeliversQueuedEventsOnClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 64)
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "corrupt")
	}
	h.LoadFailed("k", errors.New("boom"))
	h.InvalidateOutage("k", errors.New("a"), errors.New("b"))
	h.Close()

	if inner.heals != 10 || inner.failed != 1 || inner.outages != 1 {
		t.Fatalf("delivered heals=%d failed=%d outages=%d", inner.heals, inner.failed, inner.outages)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// the worker blocks on the first event, one more fits the queue
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "gen_mismatch")
	}
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a full queue")
	}
	close(inner.block)
	h.Close()

	if got := uint64(inner.heals) + h.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped = %d, want 10", got)
	}
}

func TestAfterCloseIsDropped(t *testing.T) {
	h := New(querycache.NopHooks{}, 1, 4)
	h.Close()
	h.StaleWriteSkipped("k")
	if h.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", h.Dropped())
	}
}
