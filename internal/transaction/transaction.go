// Package transaction holds the live state of one two-party exchange: the
// entity with its readiness flags, in-flight mutation guards, per-party
// offer grids and append-only audit log, plus the registry indexing
// transactions by id and by participant.
package transaction

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/grid"
)

// Stopper is the handle of an active countdown task. The entity only needs
// to be able to stop it.
type Stopper interface {
	Stop()
}

// EditState is the admission decision for a party's edit attempt.
type EditState int

// Edit admission outcomes, in guard-chain order.
const (
	// EditOK admits the edit; the party's in-flight guard is now set.
	EditOK EditState = iota
	// EditTerminal rejects because the transaction is cancelled or ended.
	EditTerminal
	// EditReadyLocked rejects because the party already flagged ready.
	EditReadyLocked
	// EditBusy rejects because a prior edit's diff pass has not completed.
	EditBusy
	// EditOutOfRegion rejects because a targeted slot is outside the
	// party's editable offer region.
	EditOutOfRegion
)

// Transaction is the mutable state of one exchange between party A (the
// original requester) and party B (the acceptor). All methods are safe for
// concurrent use; heavy mutation is additionally serialized by the apply
// loop, but admission checks may come from any caller context.
type Transaction struct {
	id uuid.UUID
	a  actor.ID
	b  actor.ID

	mu        sync.Mutex
	ready     map[actor.ID]bool
	inFlight  map[actor.ID]bool
	offers    map[actor.ID]grid.Offer
	cancelled bool
	ended     bool
	records   []ChangedUnit
	countdown Stopper
}

// New creates a transaction between requester a and acceptor b.
func New(a, b actor.ID) *Transaction {
	return &Transaction{
		id:       uuid.New(),
		a:        a,
		b:        b,
		ready:    map[actor.ID]bool{a: false, b: false},
		inFlight: map[actor.ID]bool{a: false, b: false},
		offers:   map[actor.ID]grid.Offer{a: make(grid.Offer), b: make(grid.Offer)},
	}
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uuid.UUID { return t.id }

// A returns the original requester's ID.
func (t *Transaction) A() actor.ID { return t.a }

// B returns the acceptor's ID.
func (t *Transaction) B() actor.ID { return t.b }

// Participant reports whether id is one of the two parties.
func (t *Transaction) Participant(id actor.ID) bool {
	return id == t.a || id == t.b
}

// Counterpart returns the other party. ok is false if id is not a
// participant.
func (t *Transaction) Counterpart(id actor.ID) (actor.ID, bool) {
	switch id {
	case t.a:
		return t.b, true
	case t.b:
		return t.a, true
	default:
		return "", false
	}
}

// Ready returns the party's readiness flag.
func (t *Transaction) Ready(id actor.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready[id]
}

// ToggleReady flips the party's readiness flag and returns the new value.
func (t *Transaction) ToggleReady(id actor.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ready[id] = !t.ready[id]
	return t.ready[id]
}

// BothReady reports whether both parties are flagged ready.
func (t *Transaction) BothReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready[t.a] && t.ready[t.b]
}

// ResetReady clears both readiness flags.
func (t *Transaction) ResetReady() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready[t.a] = false
	t.ready[t.b] = false
}

// InFlight returns the party's in-flight mutation guard.
func (t *Transaction) InFlight(id actor.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight[id]
}

// BeginEdit runs the admission guard chain for an edit by id targeting the
// given slots, in order: terminal transaction, readiness lock, in-flight
// guard, region membership. A single out-of-region slot rejects the whole
// attempt. On admission the in-flight guard is set and a snapshot of the
// party's current offer is returned; the deferred diff pass that observes
// the landed edit must clear the guard via EndEdit.
func (t *Transaction) BeginEdit(id actor.ID, slots []int) (grid.Offer, EditState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.ended {
		return nil, EditTerminal
	}
	if t.ready[id] {
		return nil, EditReadyLocked
	}
	if t.inFlight[id] {
		return nil, EditBusy
	}
	for _, slot := range slots {
		if !grid.IsOfferSlot(slot) {
			return nil, EditOutOfRegion
		}
	}

	t.inFlight[id] = true
	return t.offers[id].Clone(), EditOK
}

// EndEdit clears the party's in-flight guard.
func (t *Transaction) EndEdit(id actor.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight[id] = false
}

// Offer returns a copy of the party's staged offer.
func (t *Transaction) Offer(id actor.ID) grid.Offer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offers[id].Clone()
}

// SetSlot writes a unit into the party's offer grid. Returns false, landing
// nothing, once the transaction is terminal: an edit admitted just before a
// concurrent cancellation must not stage units that teardown has already
// settled, or they would be lost.
func (t *Transaction) SetSlot(id actor.ID, slot int, u grid.Unit) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.ended {
		return false
	}
	t.offers[id].Set(slot, u)
	return true
}

// MergeOffer stack-merges a unit into the party's offer in canonical slot
// order and returns the unplaced remainder. Once the transaction is terminal
// the whole unit comes back and ok is false; the caller keeps it.
func (t *Transaction) MergeOffer(id actor.ID, u grid.Unit) (remainder grid.Unit, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.ended {
		return u, false
	}
	return t.offers[id].Merge(u), true
}

// Cancelled reports whether the transaction was cancelled.
func (t *Transaction) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Ended reports whether the transaction finalized.
func (t *Transaction) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Terminal reports whether the transaction reached either terminal state.
func (t *Transaction) Terminal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled || t.ended
}

// MarkCancelled transitions to the cancelled state. Returns false if the
// transaction is already terminal; cancelled and ended are mutually
// exclusive and both final.
func (t *Transaction) MarkCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.ended {
		return false
	}
	t.cancelled = true
	return true
}

// MarkEnded transitions to the ended state. Returns false if the
// transaction is already terminal.
func (t *Transaction) MarkEnded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.ended {
		return false
	}
	t.ended = true
	return true
}

// Append adds change records to the audit log, assigning sequence numbers
// starting at 1. Records are never mutated afterwards.
func (t *Transaction) Append(records ...ChangedUnit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rec := range records {
		rec.Seq = len(t.records) + 1
		t.records = append(t.records, rec)
	}
}

// Records returns a copy of the audit log in append order.
func (t *Transaction) Records() []ChangedUnit {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := make([]ChangedUnit, len(t.records))
	copy(cp, t.records)
	return cp
}

// SetCountdown attaches an active countdown handle. A countdown may exist
// only while both readiness flags are true; the coordinator maintains that
// invariant.
func (t *Transaction) SetCountdown(s Stopper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.countdown = s
}

// ClearCountdown detaches and returns the active countdown handle, if any.
func (t *Transaction) ClearCountdown() Stopper {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.countdown
	t.countdown = nil
	return s
}

// HasCountdown reports whether a countdown handle is attached.
func (t *Transaction) HasCountdown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countdown != nil
}
