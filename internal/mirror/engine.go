// Package mirror implements the deferred half of offer mutation: projecting
// a party's staged offer into the counterpart's read-only viewer region and
// diffing it against the pre-edit snapshot to grow the transaction's audit
// log. Every pass runs as one step on the apply loop.
package mirror

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Engine mirrors offers and records diffs. One engine serves all live
// transactions; passes are serialized by the apply loop, not by the engine.
type Engine struct {
	sessions  actor.Sessions
	directory actor.Directory
	bus       *event.Bus
	log       *logging.Logger
}

// NewEngine creates a mirror engine.
func NewEngine(sessions actor.Sessions, directory actor.Directory, bus *event.Bus, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Engine{
		sessions:  sessions,
		directory: directory,
		bus:       bus,
		log:       log,
	}
}

// Sync runs one mirror-and-diff pass for an edit by acting whose pre-edit
// snapshot is before. The counterpart must be reachable with a valid view;
// otherwise the acting party's own view is force-closed, which routes the
// degradation into the ordinary cancellation path, and the pass ends.
//
// Mirroring writes every offer slot, empty ones included: an explicit clear
// is how a removed stack disappears from the counterpart's viewer. The diff
// walks the offer region in ascending slot order so record sequence numbers
// are deterministic for a given edit.
func (e *Engine) Sync(tx *transaction.Transaction, acting actor.ID, before grid.Offer) {
	counterpart, ok := tx.Counterpart(acting)
	if !ok {
		e.log.Error("mirror pass for non-participant",
			"transaction_id", tx.ID().String(), "actor", string(acting))
		return
	}

	if !e.directory.Connected(counterpart) || !e.sessions.Valid(counterpart) {
		e.log.Warn("counterpart view invalid, closing acting view",
			"transaction_id", tx.ID().String(),
			"actor", string(acting),
			"counterpart", string(counterpart))
		e.sessions.Close(acting)
		return
	}

	after := tx.Offer(acting)

	var records []transaction.ChangedUnit
	for _, slot := range grid.OfferSlots {
		unit := after.Get(slot)
		e.sessions.SetViewerSlot(counterpart, grid.ViewerSlot(slot), unit)

		old := before.Get(slot)
		kind, changed := transaction.Classify(old, unit)
		if !changed {
			continue
		}
		records = append(records, transaction.ChangedUnit{
			Slot:  slot,
			Actor: acting,
			Old:   old,
			New:   unit,
			Kind:  kind,
		})
	}

	if len(records) == 0 {
		return
	}

	tx.Append(records...)
	e.bus.Publish(event.NewOfferChangedEvent(tx.ID().String(), string(acting), len(records)))
}
