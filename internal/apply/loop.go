// Package apply provides the single-threaded apply sequence every heavy
// mutation of a transaction runs on. Deferred steps go into a bounded queue
// drained by one goroutine, one step at a time, so no two diff, mirror,
// finalize or cancel operations ever overlap. Repeating work (the settlement
// countdown) is scheduled through cancellable tickers whose callbacks are
// enqueued onto the same loop.
package apply

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/barter/internal/errors"
	"github.com/Iron-Ham/barter/internal/logging"
)

// DefaultCapacity is the default bound of the deferred-step queue.
const DefaultCapacity = 256

// Loop is the apply sequence. Create with NewLoop; it starts draining
// immediately.
type Loop struct {
	tasks  chan func()
	log    *logging.Logger
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewLoop creates a Loop with the given queue capacity and starts its drain
// goroutine. A capacity of zero or less uses DefaultCapacity.
func NewLoop(capacity int, log *logging.Logger) *Loop {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logging.NopLogger()
	}

	l := &Loop{
		tasks: make(chan func(), capacity),
		log:   log,
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

// drain executes queued steps one at a time until Close.
func (l *Loop) drain() {
	defer l.wg.Done()
	for fn := range l.tasks {
		if recovered := panics.Try(fn); recovered != nil {
			l.log.Error("apply step panicked", "panic", recovered.String())
		}
	}
}

// Defer schedules fn as the next discrete processing step. It never runs fn
// inline: the step executes on the drain goroutine after every previously
// deferred step completes. Returns ErrLoopClosed after Close, or
// ErrQueueFull if the bounded queue rejects the step.
func (l *Loop) Defer(fn func()) error {
	if l.closed.Load() {
		return errors.ErrLoopClosed
	}
	select {
	case l.tasks <- fn:
		return nil
	default:
		return errors.ErrQueueFull
	}
}

// Close stops accepting steps, drains what was already queued, and waits
// for the drain goroutine to exit.
func (l *Loop) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	close(l.tasks)
	l.wg.Wait()
}

// Ticker is the cancellable handle of a repeating scheduled callback.
type Ticker struct {
	stop    chan struct{}
	stopped atomic.Bool
}

// Stop cancels the ticker. Idempotent. Cancellation is observed at the next
// tick boundary, not pre-emptively: a tick already enqueued may still run.
func (t *Ticker) Stop() {
	if t.stopped.CompareAndSwap(false, true) {
		close(t.stop)
	}
}

// Stopped reports whether Stop has been called. Callbacks use this to drop
// ticks that were enqueued before cancellation landed.
func (t *Ticker) Stopped() bool {
	return t.stopped.Load()
}

// Every schedules fn to run on the loop immediately and then at the fixed
// period until the returned Ticker is stopped or the loop closes. Ticks that
// cannot be enqueued (full queue) are dropped with a warning rather than
// blocking the timer.
func (l *Loop) Every(period time.Duration, fn func()) *Ticker {
	t := &Ticker{stop: make(chan struct{})}

	go func() {
		if err := l.Defer(fn); err != nil {
			l.log.Warn("dropped scheduled tick", "error", err)
		}

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if t.stopped.Load() {
					return
				}
				if err := l.Defer(fn); err != nil {
					if errors.Is(err, errors.ErrLoopClosed) {
						return
					}
					l.log.Warn("dropped scheduled tick", "error", err)
				}
			}
		}
	}()

	return t
}
