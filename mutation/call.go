package mutation

import (
	"context"
	"sync/atomic"
	"time"
)

// State of a call.
type State int32

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the settled outcome of a call: Value when Err is nil.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Ok() bool { return r.Err == nil }

// Call is one invocation of a Mutation.
type Call[Out any] struct {
	ID        string
	Name      string
	StartedAt time.Time

	state  atomic.Int32
	result Result[Out] // written once before done is closed
	done   chan struct{}
}

// Done is closed once the call has settled and its side effects have run.
func (c *Call[Out]) Done() <-chan struct{} { return c.done }

// InFlight reports whether the call has not settled yet.
func (c *Call[Out]) InFlight() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// State is Pending until the write returns, then Succeeded or Failed. It may
// change before Done is closed, while side effects still run.
func (c *Call[Out]) State() State { return State(c.state.Load()) }

// Result returns the outcome once Done is closed.
func (c *Call[Out]) Result() (Result[Out], bool) {
	select {
	case <-c.done:
		return c.result, true
	default:
		return Result[Out]{}, false
	}
}

// Wait blocks until the call settles or ctx is done.
func (c *Call[Out]) Wait(ctx context.Context) (Out, error) {
	select {
	case <-c.done:
		return c.result.Value, c.result.Err
	case <-ctx.Done():
		var zero Out
		return zero, ctx.Err()
	}
}
