// Package grid defines the fixed 54-slot exchange layout shared by both
// parties of a trade: the offer region each party may edit, the decorative
// region, the readiness indicator slots, and the deterministic mapping that
// projects one party's offer region into the counterpart's read-only viewer
// region.
package grid

// Size is the total number of slots in an exchange view (6 rows of 9).
const Size = 54

// Indicator slots within each party's view.
const (
	// SelfIndicatorSlot shows the viewing party's own readiness and, while a
	// countdown is running, the seconds remaining.
	SelfIndicatorSlot = 12
	// OtherIndicatorSlot shows the counterpart's readiness.
	OtherIndicatorSlot = 14
)

// OfferSlots lists, in canonical scan order, the slots a party may edit to
// stage units for exchange. Everything else is decorative or mirrored from
// the counterpart and is never editable.
var OfferSlots = []int{
	9, 10,
	18, 19,
	27, 28, 29,
	36, 37, 38, 39,
	45, 46, 47, 48,
}

// DecorSlots lists the decorative filler slots of the layout.
var DecorSlots = []int{
	0, 1, 2, 3, 4, 5, 6, 7, 8,
	11, 13, 15,
	20, 21, 23, 24,
	30, 31, 32,
	40,
	49,
}

var offerSet = func() map[int]struct{} {
	m := make(map[int]struct{}, len(OfferSlots))
	for _, s := range OfferSlots {
		m[s] = struct{}{}
	}
	return m
}()

// IsOfferSlot reports whether slot is part of the editable offer region.
func IsOfferSlot(slot int) bool {
	_, ok := offerSet[slot]
	return ok
}

// ViewerSlot maps an offer-region slot to the counterpart's read-only viewer
// slot. The transform is a banded offset: rows further down the grid shift by
// one column less so the mirrored block lands on the right-hand side.
func ViewerSlot(slot int) int {
	if slot <= 19 {
		return slot + 7
	}
	if slot <= 29 {
		return slot + 6
	}
	return slot + 5
}
