// Package cancel tears down a live transaction before settlement. The same
// path serves every trigger, whether an explicit command or a lost view or
// connection, and is idempotent: the first caller to flip the terminal flag
// does the work, everyone after is a silent no-op.
package cancel

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Coordinator cancels live transactions and returns staged units to their
// owners. Runs as apply-loop steps; never concurrently with itself.
type Coordinator struct {
	transactions *transaction.Registry
	sessions     actor.Sessions
	directory    actor.Directory
	notifier     notify.Notifier
	bus          *event.Bus
	log          *logging.Logger
}

// NewCoordinator creates a cancellation coordinator.
func NewCoordinator(
	transactions *transaction.Registry,
	sessions actor.Sessions,
	directory actor.Directory,
	notifier notify.Notifier,
	bus *event.Bus,
	log *logging.Logger,
) *Coordinator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Coordinator{
		transactions: transactions,
		sessions:     sessions,
		directory:    directory,
		notifier:     notifier,
		bus:          bus,
		log:          log,
	}
}

// Cancel tears down whatever live transaction the trigger actor participates
// in. No transaction, or a transaction already terminal, means nothing to do.
// Staged units go back to their owners; the trigger always gets theirs, the
// counterpart gets theirs only while their view is still valid; a vanished
// counterpart forfeits delivery rather than blocking teardown.
func (c *Coordinator) Cancel(trigger actor.ID) {
	tx := c.transactions.FindByActor(trigger)
	if tx == nil {
		return
	}
	if !tx.MarkCancelled() {
		return
	}

	log := c.log.WithTrade(tx.ID().String())

	tx.ResetReady()
	c.transactions.Unregister(tx.ID())
	if s := tx.ClearCountdown(); s != nil {
		s.Stop()
	}

	c.returnOffer(tx, trigger, log)
	c.sessions.Close(trigger)

	counterpart, ok := tx.Counterpart(trigger)
	if ok {
		if c.directory.Connected(counterpart) {
			c.notifier.Notify(counterpart,
				notify.NewCancelled(trigger, c.directory.Name(trigger)))
		}
		if c.sessions.Valid(counterpart) {
			c.returnOffer(tx, counterpart, log)
			c.sessions.Close(counterpart)
		}
	}

	c.bus.Publish(event.NewTradeCancelledEvent(tx.ID().String(), string(trigger)))
	log.Info("trade cancelled", "by", string(trigger))
}

// returnOffer deposits the party's staged units back into their storage.
// Overflow is logged; the session layer decides what a full store means.
func (c *Coordinator) returnOffer(tx *transaction.Transaction, id actor.ID, log *logging.Logger) {
	offer := tx.Offer(id)
	for _, slot := range grid.OfferSlots {
		u := offer.Get(slot)
		if u.IsEmpty() {
			continue
		}
		if overflow := c.sessions.Deposit(id, u); !overflow.IsEmpty() {
			log.Warn("storage overflow returning staged units",
				"actor", string(id),
				"type", overflow.Type,
				"quantity", overflow.Quantity)
		}
	}
}
