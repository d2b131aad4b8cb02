// Package gate is the admission point for offer mutation. The synchronous
// half runs the entity's guard chain and, when admitted, lands the edit on
// the staged offer; the deferred half (mirroring and diffing) is handed to
// the apply loop as a single step. Rejections are ordinary outcome values,
// not errors.
package gate

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/apply"
	"github.com/Iron-Ham/barter/internal/errors"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/mirror"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Result is the admission outcome of a mutation attempt.
type Result string

// Mutation outcomes. The rejection order mirrors the entity's guard chain.
const (
	Admitted              Result = "admitted"
	RejectedNoTransaction Result = "rejected_no_transaction"
	RejectedTerminal      Result = "rejected_terminal"
	RejectedReady         Result = "rejected_ready"
	RejectedInFlight      Result = "rejected_in_flight"
	RejectedOutOfRegion   Result = "rejected_out_of_region"
)

// Keeper admits and lands offer mutations.
type Keeper struct {
	transactions *transaction.Registry
	mirror       *mirror.Engine
	loop         *apply.Loop
	log          *logging.Logger
}

// NewKeeper creates a mutation gatekeeper.
func NewKeeper(transactions *transaction.Registry, m *mirror.Engine, loop *apply.Loop, log *logging.Logger) *Keeper {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Keeper{
		transactions: transactions,
		mirror:       m,
		loop:         loop,
		log:          log,
	}
}

// Apply attempts a bulk edit by id: each entry writes (or, for empty units,
// clears) one offer-region slot. Admission is all-or-nothing; one slot
// outside the region rejects the whole batch before anything lands. On
// admission the edit lands synchronously and the mirror-and-diff pass is
// deferred, with the in-flight guard held until that pass completes.
func (k *Keeper) Apply(id actor.ID, changes map[int]grid.Unit) Result {
	tx := k.transactions.FindByActor(id)
	if tx == nil {
		return RejectedNoTransaction
	}

	slots := make([]int, 0, len(changes))
	for slot := range changes {
		slots = append(slots, slot)
	}

	before, state := tx.BeginEdit(id, slots)
	if res, ok := rejection(state); ok {
		return res
	}

	for slot, u := range changes {
		if !tx.SetSlot(id, slot, u) {
			// A cancellation landed between admission and this write. The
			// caller keeps the unwritten units; anything already landed is
			// covered by the teardown's return pass.
			tx.EndEdit(id)
			k.logTerminalRace(tx, id)
			return RejectedTerminal
		}
	}

	k.deferSync(tx, id, before)
	return Admitted
}

// Move attempts a shift-style placement: the unit is merged into the party's
// offer in canonical slot order and the unplaced remainder is returned. The
// remainder stays with the caller; it is never dropped. The Result reports
// admission exactly as Apply does.
func (k *Keeper) Move(id actor.ID, u grid.Unit) (grid.Unit, Result) {
	tx := k.transactions.FindByActor(id)
	if tx == nil {
		return u, RejectedNoTransaction
	}

	before, state := tx.BeginEdit(id, nil)
	if res, ok := rejection(state); ok {
		return u, res
	}

	remainder, ok := tx.MergeOffer(id, u)
	if !ok {
		tx.EndEdit(id)
		k.logTerminalRace(tx, id)
		return u, RejectedTerminal
	}

	k.deferSync(tx, id, before)
	return remainder, Admitted
}

// logTerminalRace records an edit that was admitted just before a concurrent
// terminal transition. Expected traffic, not a fault.
func (k *Keeper) logTerminalRace(tx *transaction.Transaction, id actor.ID) {
	state := "cancelled"
	if tx.Ended() {
		state = "ended"
	}
	k.log.Debug("edit rejected by terminal transition",
		"actor", string(id),
		"error", errors.NewStateConflictError(tx.ID().String(), state))
}

// deferSync schedules the mirror-and-diff pass that also releases the
// in-flight guard. If the loop refuses the step the guard is released
// immediately so the party is not locked out; the mirror pass for this edit
// is lost and the next admitted edit reconciles the viewer.
func (k *Keeper) deferSync(tx *transaction.Transaction, id actor.ID, before grid.Offer) {
	err := k.loop.Defer(func() {
		defer tx.EndEdit(id)
		k.mirror.Sync(tx, id, before)
	})
	if err != nil {
		k.log.Error("failed to defer mirror pass",
			"transaction_id", tx.ID().String(),
			"actor", string(id),
			"error", err)
		tx.EndEdit(id)
	}
}

// rejection maps an admission state to its outward Result.
func rejection(state transaction.EditState) (Result, bool) {
	switch state {
	case transaction.EditTerminal:
		return RejectedTerminal, true
	case transaction.EditReadyLocked:
		return RejectedReady, true
	case transaction.EditBusy:
		return RejectedInFlight, true
	case transaction.EditOutOfRegion:
		return RejectedOutOfRegion, true
	default:
		return "", false
	}
}
