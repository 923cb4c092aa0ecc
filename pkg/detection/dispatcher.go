package detection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result is a completed detector call.
type Result[T any] struct {
	Value T
	Err   error
	Seq   uint64        // Frame sequence the call was dispatched for
	Took  time.Duration // Wall time of the call
}

// Dispatcher runs at most one detector call at a time in the background and
// publishes the latest result into a one-slot mailbox. The frame loop fires a
// dispatch and consumes the result on a later frame via Poll, so it never
// blocks on inference.
type Dispatcher[T any] struct {
	name    string
	busy    atomic.Bool
	mailbox chan Result[T]
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the named detector.
func NewDispatcher[T any](name string) *Dispatcher[T] {
	return &Dispatcher[T]{
		name:    name,
		mailbox: make(chan Result[T], 1),
	}
}

// Name returns the detector name.
func (d *Dispatcher[T]) Name() string {
	return d.name
}

// Busy reports whether a call is in flight.
func (d *Dispatcher[T]) Busy() bool {
	return d.busy.Load()
}

// Dispatch starts fn in the background for frame seq. If a call is already
// in flight the dispatch is dropped and ErrBusy returned. Panics inside fn
// are recovered and published as a *PanicError result.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, seq uint64, fn func(context.Context) (T, error)) error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.busy.Store(false)

		start := time.Now()
		value, err := d.call(ctx, fn)
		d.publish(Result[T]{Value: value, Err: err, Seq: seq, Took: time.Since(start)})
	}()
	return nil
}

func (d *Dispatcher[T]) call(ctx context.Context, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Detector: d.name, Value: r}
		}
	}()
	return fn(ctx)
}

// publish replaces any unconsumed result with r.
func (d *Dispatcher[T]) publish(r Result[T]) {
	select {
	case <-d.mailbox:
	default:
	}
	d.mailbox <- r
}

// Poll returns the latest published result without blocking.
func (d *Dispatcher[T]) Poll() (Result[T], bool) {
	select {
	case r := <-d.mailbox:
		return r, true
	default:
		return Result[T]{}, false
	}
}

// Wait blocks until the in-flight call, if any, has published.
func (d *Dispatcher[T]) Wait() {
	d.wg.Wait()
}
