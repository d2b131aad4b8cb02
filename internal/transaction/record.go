package transaction

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/grid"
)

// ChangeKind classifies a slot transition in a party's offer.
type ChangeKind string

// Change kinds.
const (
	ChangeAdd    ChangeKind = "ADD"
	ChangeRemove ChangeKind = "REMOVE"
	ChangeModify ChangeKind = "CHANGE"
)

// Classify determines the change kind for a slot transition. The second
// return is false when the slot did not change and no record should be made.
func Classify(old, new grid.Unit) (ChangeKind, bool) {
	switch {
	case old.IsEmpty() && new.IsEmpty():
		return "", false
	case old.IsEmpty():
		return ChangeAdd, true
	case new.IsEmpty():
		return ChangeRemove, true
	case old.Equal(new):
		return "", false
	default:
		return ChangeModify, true
	}
}

// ChangedUnit is one immutable entry of a transaction's audit log: a single
// slot transition observed by a diff pass. Records are created only by the
// mirroring engine and never mutated after being appended.
type ChangedUnit struct {
	Seq   int        `json:"seq"`
	Slot  int        `json:"slot"`
	Actor actor.ID   `json:"actor"`
	Old   grid.Unit  `json:"old"`
	New   grid.Unit  `json:"new"`
	Kind  ChangeKind `json:"kind"`
}

// Delta returns the quantity change at the slot (new minus old).
func (c ChangedUnit) Delta() int {
	return c.New.Quantity - c.Old.Quantity
}

// Body renders the record in the flat field layout the audit sink persists.
// Absent units report the "Unknown" type with amount zero.
func (c ChangedUnit) Body() map[string]any {
	oldType, newType := "Unknown", "Unknown"
	if !c.Old.IsEmpty() {
		oldType = c.Old.Type
	}
	if !c.New.IsEmpty() {
		newType = c.New.Type
	}

	return map[string]any{
		"seq":               c.Seq,
		"slot":              c.Slot,
		"actor":             string(c.Actor),
		"old_item_type":     oldType,
		"old_item_amount":   c.Old.Quantity,
		"new_item_type":     newType,
		"new_item_amount":   c.New.Quantity,
		"difference_amount": c.Delta(),
		"type":              string(c.Kind),
	}
}
