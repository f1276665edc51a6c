package goinject

import (
	"context"
	"fmt"
	"sync"
)

// Deferred is a value that is not available yet. It settles exactly once,
// with either a value or an error.
//
// Awaiting with a context only abandons the wait, the work producing the
// value keeps running.
type Deferred struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Defer runs fn on a new goroutine and returns a Deferred settled with its
// outcome. A panic inside fn rejects the Deferred.
func Defer(fn func() (any, error)) *Deferred {
	d := newDeferred()
	go func() {
		defer d.recoverPanic()
		value, err := fn()
		d.settle(value, err)
	}()
	return d
}

// Resolved returns an already settled Deferred. It is mostly useful for
// tests and activation handlers that only sometimes need to wait.
func Resolved(value any) *Deferred {
	d := newDeferred()
	d.settle(value, nil)
	return d
}

func Rejected(err error) *Deferred {
	d := newDeferred()
	d.settle(nil, err)
	return d
}

func (d *Deferred) settle(value any, err error) {
	d.once.Do(func() {
		d.value = value
		d.err = err
		close(d.done)
	})
}

func (d *Deferred) recoverPanic() {
	if r := recover(); r != nil {
		if err, ok := r.(error); ok {
			d.settle(nil, fmt.Errorf("deferred value panicked: %w", err))
			return
		}
		d.settle(nil, fmt.Errorf("deferred value panicked: %v", r))
	}
}

// Done is closed once the Deferred settles.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Deferred) wait() (any, error) {
	<-d.done
	return d.value, d.err
}

// Result is the outcome of resolving a value: either ready now or pending
// on a Deferred. Every stage of a resolution is written against Result, so
// the same code path serves both cases.
type Result struct {
	value    any
	deferred *Deferred
}

func Ready(value any) Result {
	return Result{value: value}
}

func Pending(deferred *Deferred) Result {
	return Result{deferred: deferred}
}

func (r Result) IsPending() bool {
	return r.deferred != nil
}

// Value returns the ready value. The boolean is false for pending results.
func (r Result) Value() (any, bool) {
	if r.deferred != nil {
		return nil, false
	}
	return r.value, true
}

// Deferred returns the underlying Deferred, or an already settled one for
// ready results.
func (r Result) Deferred() *Deferred {
	if r.deferred != nil {
		return r.deferred
	}
	return Resolved(r.value)
}

func (r Result) Await(ctx context.Context) (any, error) {
	if r.deferred == nil {
		return r.value, nil
	}
	return r.deferred.Await(ctx)
}

func (r Result) wait() (any, error) {
	if r.deferred == nil {
		return r.value, nil
	}
	return r.deferred.wait()
}

// then feeds the value of r into next. Ready results are chained
// synchronously, pending ones continue on a goroutine once they settle.
func then(r Result, next func(value any) (Result, error)) (Result, error) {
	if r.deferred == nil {
		return next(r.value)
	}
	return Pending(Defer(func() (any, error) {
		value, err := r.deferred.wait()
		if err != nil {
			return nil, err
		}
		nextResult, err := next(value)
		if err != nil {
			return nil, err
		}
		return nextResult.wait()
	})), nil
}

// all collects results into a []any keeping their order. The collection is
// pending as soon as one element is.
func all(results []Result) Result {
	values := make([]any, len(results))
	pending := false
	for i, result := range results {
		if result.deferred != nil {
			pending = true
			continue
		}
		values[i] = result.value
	}
	if !pending {
		return Ready(values)
	}

	return Pending(Defer(func() (any, error) {
		for i, result := range results {
			if result.deferred == nil {
				continue
			}
			value, err := result.deferred.wait()
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		return values, nil
	}))
}
