// Package mutation runs named write operations and their side effects.
//
// A Mutation issues exactly one attempt per Run. Its settlement is published
// in a fixed order: the result is finalized, then the side effects run
// (cache invalidations and OnSuccess, or OnError), then Done is closed.
// Effects therefore never observe an unfinished result and run at most once.
package mutation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/querycache"
)

// Func performs the write.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Options configure the side effects of a Mutation. All fields are optional.
type Options[In, Out any] struct {
	// Cache receives the invalidations below after a successful write.
	Cache *querycache.Client

	// Invalidates lists keys (and by extension their sub-keys) to invalidate
	// on success.
	Invalidates func(in In, out Out) []querycache.Key
	// InvalidatePrefixes lists whole operations to invalidate on success.
	InvalidatePrefixes []string

	// OnSuccess runs after the invalidations.
	OnSuccess func(ctx context.Context, in In, out Out)
	// OnError reports a failed write. It cannot change the outcome.
	OnError func(ctx context.Context, in In, err error)

	Logger querycache.Logger
}

// Mutation is a named write. Safe for concurrent use; calls are independent.
type Mutation[In, Out any] struct {
	name string
	fn   Func[In, Out]
	opts Options[In, Out]
	log  querycache.Logger

	inflight atomic.Int64
	last     atomic.Pointer[Call[Out]]
}

// New panics when fn is nil.
func New[In, Out any](name string, fn Func[In, Out], opts Options[In, Out]) *Mutation[In, Out] {
	if fn == nil {
		panic(fmt.Sprintf("mutation %q: nil func", name))
	}
	m := &Mutation[In, Out]{name: name, fn: fn, opts: opts, log: opts.Logger}
	if m.log == nil {
		m.log = querycache.NopLogger{}
	}
	return m
}

func (m *Mutation[In, Out]) Name() string { return m.name }

// InFlight reports whether any call started by m has not settled.
func (m *Mutation[In, Out]) InFlight() bool { return m.inflight.Load() > 0 }

// Last returns the most recently started call, or nil.
func (m *Mutation[In, Out]) Last() *Call[Out] { return m.last.Load() }

// Run starts the write and returns immediately. The write and its effects
// run to completion even if ctx is cancelled; ctx values are preserved.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) *Call[Out] {
	call := &Call[Out]{
		ID:        uuid.NewString(),
		Name:      m.name,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
	call.state.Store(int32(Pending))
	m.inflight.Add(1)
	m.last.Store(call)

	go m.settle(context.WithoutCancel(ctx), call, in)
	return call
}

// RunAndWait runs the write and blocks until it settles (effects included)
// or ctx is done. A cancelled wait does not stop the write.
func (m *Mutation[In, Out]) RunAndWait(ctx context.Context, in In) (Out, error) {
	return m.Run(ctx, in).Wait(ctx)
}

func (m *Mutation[In, Out]) settle(ctx context.Context, call *Call[Out], in In) {
	defer close(call.done)
	defer m.inflight.Add(-1)

	out, err := m.call(ctx, in)
	call.result = Result[Out]{Value: out, Err: err}
	if err != nil {
		call.state.Store(int32(Failed))
	} else {
		call.state.Store(int32(Succeeded))
	}
	m.log.Debug("mutation settled", querycache.Fields{
		"op":      m.name,
		"id":      call.ID,
		"state":   call.State().String(),
		"elapsed": time.Since(call.StartedAt).String(),
	})

	if err != nil {
		if m.opts.OnError != nil {
			m.effect("on_error", func() { m.opts.OnError(ctx, in, err) })
		}
		return
	}
	m.invalidate(ctx, in, out)
	if m.opts.OnSuccess != nil {
		m.effect("on_success", func() { m.opts.OnSuccess(ctx, in, out) })
	}
}

func (m *Mutation[In, Out]) call(ctx context.Context, in In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mutation %q panicked: %v", m.name, r)
		}
	}()
	return m.fn(ctx, in)
}

func (m *Mutation[In, Out]) invalidate(ctx context.Context, in In, out Out) {
	if m.opts.Cache == nil {
		return
	}
	var keys []querycache.Key
	if m.opts.Invalidates != nil {
		m.effect("invalidates", func() { keys = m.opts.Invalidates(in, out) })
	}
	for _, p := range m.opts.InvalidatePrefixes {
		keys = append(keys, querycache.Key{Op: p})
	}
	if err := m.opts.Cache.InvalidateAll(ctx, keys...); err != nil {
		m.log.Warn("invalidate after mutation failed", querycache.Fields{"op": m.name, "err": err})
	}
}

// effect runs a side effect; a panic is logged and swallowed so settlement
// always completes.
func (m *Mutation[In, Out]) effect(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("mutation side effect panicked", querycache.Fields{
				"op": m.name, "effect": name, "panic": fmt.Sprint(r),
			})
		}
	}()
	f()
}
