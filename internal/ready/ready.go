// Package ready coordinates the two readiness flags and the settlement
// countdown they arm. Any toggle kills a running countdown; only a fresh
// both-ready transition arms a new one. The countdown ticks on the apply
// loop, so ticks never interleave with edits, cancellation or finalization.
package ready

import (
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/apply"
	"github.com/Iron-Ham/barter/internal/audit"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Defaults for the settlement countdown.
const (
	DefaultTicks        = 5
	DefaultTickInterval = time.Second
)

// Canceller routes a degraded party into the ordinary cancellation path.
type Canceller interface {
	Cancel(trigger actor.ID)
}

// Coordinator owns readiness toggling, countdown scheduling and settlement.
// Its mutating methods must run as apply-loop steps.
type Coordinator struct {
	transactions *transaction.Registry
	sessions     actor.Sessions
	directory    actor.Directory
	notifier     notify.Notifier
	canceller    Canceller
	sink         audit.Sink
	bus          *event.Bus
	loop         *apply.Loop
	log          *logging.Logger

	ticks    int
	interval time.Duration

	sinkFailureLogged atomic.Bool
}

// NewCoordinator creates a readiness coordinator. Zero ticks or interval
// fall back to the defaults.
func NewCoordinator(
	transactions *transaction.Registry,
	sessions actor.Sessions,
	directory actor.Directory,
	notifier notify.Notifier,
	canceller Canceller,
	sink audit.Sink,
	bus *event.Bus,
	loop *apply.Loop,
	log *logging.Logger,
	ticks int,
	interval time.Duration,
) *Coordinator {
	if log == nil {
		log = logging.NopLogger()
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Coordinator{
		transactions: transactions,
		sessions:     sessions,
		directory:    directory,
		notifier:     notifier,
		canceller:    canceller,
		sink:         sink,
		bus:          bus,
		loop:         loop,
		log:          log,
		ticks:        ticks,
		interval:     interval,
	}
}

// Toggle flips the actor's readiness flag. A toggle against a missing or
// terminal transaction does nothing. Any toggle, in either direction, stops
// a running countdown; a countdown is armed only when this toggle produces
// a fresh both-ready state.
func (c *Coordinator) Toggle(id actor.ID) {
	tx := c.transactions.FindByActor(id)
	if tx == nil || tx.Terminal() {
		return
	}

	ready := tx.ToggleReady(id)
	counterpart, _ := tx.Counterpart(id)

	// Readiness changed, so whatever countdown was running no longer has a
	// valid arming condition behind it.
	c.stopCountdown(tx)

	c.sessions.SetSelfIndicator(id,
		actor.IndicatorState{Ready: ready, Remaining: actor.NoCountdown})
	c.sessions.SetOtherIndicator(counterpart,
		actor.IndicatorState{Ready: ready, Remaining: actor.NoCountdown})

	if c.directory.Connected(counterpart) {
		c.notifier.Notify(counterpart,
			notify.NewReadyChanged(id, c.directory.Name(id), ready))
	}
	c.bus.Publish(event.NewReadinessChangedEvent(tx.ID().String(), string(id), ready))

	if tx.BothReady() {
		c.arm(tx)
	}
}

// arm starts a settlement countdown. The first tick fires immediately, so
// both parties see the full count before it shrinks.
func (c *Coordinator) arm(tx *transaction.Transaction) {
	cd := &countdown{coord: c, tx: tx, remaining: c.ticks}
	cd.ticker = c.loop.Every(c.interval, cd.tick)
	tx.SetCountdown(cd.ticker)

	c.log.WithTrade(tx.ID().String()).Info("settlement countdown armed",
		"ticks", c.ticks)
}

// stopCountdown detaches and stops the transaction's countdown, if any.
func (c *Coordinator) stopCountdown(tx *transaction.Transaction) {
	if s := tx.ClearCountdown(); s != nil {
		s.Stop()
	}
}

// countdown is the per-arming tick state. tick only ever runs as an
// apply-loop step, so remaining needs no synchronization.
type countdown struct {
	coord     *Coordinator
	tx        *transaction.Transaction
	ticker    *apply.Ticker
	remaining int
}

func (cd *countdown) tick() {
	c, tx := cd.coord, cd.tx

	// A stopped arming may still have one enqueued tick in flight. Dropping
	// it here keeps a superseded countdown from ticking against a fresh one.
	if cd.ticker.Stopped() {
		return
	}
	if tx.Terminal() {
		c.stopCountdown(tx)
		return
	}

	for _, p := range []actor.ID{tx.A(), tx.B()} {
		if !c.directory.Connected(p) || !c.sessions.Valid(p) {
			c.stopCountdown(tx)
			c.canceller.Cancel(p)
			return
		}
	}

	cd.remaining--

	a, b := tx.A(), tx.B()
	c.notifier.Notify(a, notify.NewCountdown(b, c.directory.Name(b), cd.remaining))
	c.notifier.Notify(b, notify.NewCountdown(a, c.directory.Name(a), cd.remaining))
	c.sessions.SetSelfIndicator(a,
		actor.IndicatorState{Ready: true, Remaining: cd.remaining})
	c.sessions.SetSelfIndicator(b,
		actor.IndicatorState{Ready: true, Remaining: cd.remaining})
	c.bus.Publish(event.NewCountdownTickEvent(tx.ID().String(), cd.remaining))

	if cd.remaining <= 0 {
		c.stopCountdown(tx)
		c.finalize(tx)
	}
}

// finalize settles the transaction. The terminal transition and registry
// removal happen before any delivery, so nothing that runs during delivery
// can re-enter the trade.
func (c *Coordinator) finalize(tx *transaction.Transaction) {
	for _, p := range []actor.ID{tx.A(), tx.B()} {
		if !c.directory.Connected(p) || !c.sessions.Valid(p) {
			c.canceller.Cancel(p)
			return
		}
	}

	if !tx.MarkEnded() {
		return
	}
	c.transactions.Unregister(tx.ID())
	log := c.log.WithTrade(tx.ID().String())

	a, b := tx.A(), tx.B()
	c.deliver(tx, b, a, log) // a receives what b staged
	c.deliver(tx, a, b, log)

	c.notifier.Notify(a, notify.NewCompleted(b, c.directory.Name(b)))
	c.notifier.Notify(b, notify.NewCompleted(a, c.directory.Name(a)))
	c.sessions.Close(a)
	c.sessions.Close(b)

	c.persist(tx, log)
	c.bus.Publish(event.NewTradeCompletedEvent(tx.ID().String(), string(a), string(b)))
	log.Info("trade completed")
}

// deliver deposits everything from staged into to's storage.
func (c *Coordinator) deliver(tx *transaction.Transaction, from, to actor.ID, log *logging.Logger) {
	offer := tx.Offer(from)
	for _, slot := range grid.OfferSlots {
		u := offer.Get(slot)
		if u.IsEmpty() {
			continue
		}
		if overflow := c.sessions.Deposit(to, u); !overflow.IsEmpty() {
			log.Warn("storage overflow delivering settled units",
				"actor", string(to),
				"type", overflow.Type,
				"quantity", overflow.Quantity)
		}
	}
}

// persist hands the audit entry to the sink off the apply loop. Sink failure
// never unwinds a settlement; it is logged loudly once and quietly after.
func (c *Coordinator) persist(tx *transaction.Transaction, log *logging.Logger) {
	records := tx.Records()
	bodies := make([]map[string]any, len(records))
	for i, rec := range records {
		bodies[i] = rec.Body()
	}

	entry := audit.Entry{
		TransactionID: tx.ID().String(),
		Requester:     tx.A(),
		Acceptor:      tx.B(),
		CompletedAt:   time.Now(),
		Records:       bodies,
	}

	go func() {
		var err error
		if recovered := panics.Try(func() { err = c.sink.Append(entry) }); recovered != nil {
			log.Error("audit sink panicked", "panic", recovered.String())
			return
		}
		if err == nil {
			return
		}
		if c.sinkFailureLogged.CompareAndSwap(false, true) {
			log.Error("failed to persist audit entry", "error", err)
		} else {
			log.Debug("failed to persist audit entry", "error", err)
		}
	}()
}
