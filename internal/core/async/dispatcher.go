// Package async runs long-latency work off the game loop and hands the
// results back to it.
//
// Work runs on its own goroutine; its completion is queued and only executed
// when the loop calls Drain, so completions never race with game state.
package async

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher queues completions of asynchronous work for the game loop.
type Dispatcher struct {
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	done     chan func()
	wg       sync.WaitGroup
	inFlight atomic.Int32
	inline   bool
}

// NewDispatcher creates a dispatcher. buffer sizes the completion queue;
// timeout bounds each unit of work (0 means no bound).
func NewDispatcher(buffer int, timeout time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
		done:    make(chan func(), buffer),
	}
}

// NewInline creates a dispatcher that runs work synchronously on the caller's
// goroutine. Completions are still deferred to Drain. Used by replays and tests;
// buffer must cover every completion issued between two Drain calls.
func NewInline(buffer int) *Dispatcher {
	d := NewDispatcher(buffer, 0)
	d.inline = true
	return d
}

// Go runs work and queues complete(result, err) for the next Drain.
func Go[T any](d *Dispatcher, work func(ctx context.Context) (T, error), complete func(T, error)) {
	d.inFlight.Add(1)
	if d.inline {
		v, err := runWork(d, work)
		d.done <- func() { complete(v, err) }
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		v, err := runWork(d, work)
		d.done <- func() { complete(v, err) }
	}()
}

// Fire runs work without a result, for fire-and-forget requests whose only
// interesting outcome is a failure. onError runs on the game loop.
func Fire(d *Dispatcher, work func(ctx context.Context) error, onError func(error)) {
	Go(d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	}, func(_ struct{}, err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	})
}

func runWork[T any](d *Dispatcher, work func(ctx context.Context) (T, error)) (T, error) {
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return work(ctx)
}

// Drain runs every queued completion on the calling goroutine and returns how
// many ran. It never blocks.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		select {
		case fn := <-d.done:
			d.inFlight.Add(-1)
			fn()
			n++
		default:
			return n
		}
	}
}

// InFlight returns the number of requests whose completion has not been drained.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Close cancels outstanding work and discards completions that have not been
// drained yet. It returns once every worker goroutine exited.
func (d *Dispatcher) Close() {
	d.cancel()
	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	for {
		select {
		case <-d.done:
			d.inFlight.Add(-1)
		case <-finished:
			for {
				select {
				case <-d.done:
					d.inFlight.Add(-1)
				default:
					return
				}
			}
		}
	}
}
