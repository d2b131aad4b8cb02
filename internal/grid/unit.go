package grid

// Unit is a discrete stack of a single resource type. The zero value is the
// explicit "empty" marker used when mirroring vacated slots.
type Unit struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	// MaxStack is the largest quantity a single slot may hold for this type.
	MaxStack int `json:"max_stack"`
}

// IsEmpty reports whether the unit represents an empty slot.
func (u Unit) IsEmpty() bool {
	return u.Type == "" || u.Quantity <= 0
}

// StacksWith reports whether o can be merged into the same slot as u.
// Both must be non-empty, of the same type, and share a stack cap.
func (u Unit) StacksWith(o Unit) bool {
	return !u.IsEmpty() && !o.IsEmpty() && u.Type == o.Type && u.MaxStack == o.MaxStack
}

// Equal reports whether two units are indistinguishable (type and quantity).
func (u Unit) Equal(o Unit) bool {
	if u.IsEmpty() && o.IsEmpty() {
		return true
	}
	return u.Type == o.Type && u.Quantity == o.Quantity
}

// Offer is a party's staged resources, keyed by offer-region slot index.
// Absent keys and empty units both mean an empty slot.
type Offer map[int]Unit

// Get returns the unit at slot, or the empty unit.
func (o Offer) Get(slot int) Unit {
	return o[slot]
}

// Set places u at slot. Empty units clear the slot so iteration never
// observes stale entries.
func (o Offer) Set(slot int, u Unit) {
	if u.IsEmpty() {
		delete(o, slot)
		return
	}
	o[slot] = u
}

// Clone returns an independent copy of the offer.
func (o Offer) Clone() Offer {
	cp := make(Offer, len(o))
	for slot, u := range o {
		cp[slot] = u
	}
	return cp
}

// Merge places u into the offer by scanning OfferSlots in canonical order.
// The first empty slot encountered takes the entire remaining unit. A slot
// holding a stackable unit absorbs min(remaining, residual capacity) and the
// scan continues. The unplaced remainder is returned; callers keep it in
// private storage rather than discarding it.
func (o Offer) Merge(u Unit) Unit {
	if u.IsEmpty() {
		return Unit{}
	}

	remaining := u
	for _, slot := range OfferSlots {
		held := o.Get(slot)
		if held.IsEmpty() {
			o.Set(slot, remaining)
			return Unit{}
		}
		if !held.StacksWith(remaining) {
			continue
		}

		room := held.MaxStack - held.Quantity
		if room <= 0 {
			continue
		}
		moved := min(room, remaining.Quantity)
		held.Quantity += moved
		o.Set(slot, held)

		remaining.Quantity -= moved
		if remaining.Quantity <= 0 {
			return Unit{}
		}
	}
	return remaining
}
