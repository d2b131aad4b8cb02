package grid

import "testing"

func TestViewerSlot(t *testing.T) {
	tests := []struct {
		name string
		slot int
		want int
	}{
		{"first row start", 9, 16},
		{"first row end", 10, 17},
		{"second row", 18, 25},
		{"second row end", 19, 26},
		{"third row start", 27, 33},
		{"third row end", 29, 35},
		{"fourth row start", 36, 41},
		{"fourth row end", 39, 44},
		{"fifth row start", 45, 50},
		{"fifth row end", 48, 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ViewerSlot(tt.slot); got != tt.want {
				t.Errorf("ViewerSlot(%d) = %d, want %d", tt.slot, got, tt.want)
			}
		})
	}
}

func TestViewerSlotsDisjointFromOfferRegion(t *testing.T) {
	for _, slot := range OfferSlots {
		mapped := ViewerSlot(slot)
		if IsOfferSlot(mapped) {
			t.Errorf("ViewerSlot(%d) = %d lands inside the offer region", slot, mapped)
		}
		if mapped < 0 || mapped >= Size {
			t.Errorf("ViewerSlot(%d) = %d outside the grid", slot, mapped)
		}
	}
}

func TestIsOfferSlot(t *testing.T) {
	for _, slot := range OfferSlots {
		if !IsOfferSlot(slot) {
			t.Errorf("IsOfferSlot(%d) = false, want true", slot)
		}
	}
	for _, slot := range DecorSlots {
		if IsOfferSlot(slot) {
			t.Errorf("IsOfferSlot(%d) = true for decorative slot", slot)
		}
	}
	for _, slot := range []int{SelfIndicatorSlot, OtherIndicatorSlot, -1, Size} {
		if IsOfferSlot(slot) {
			t.Errorf("IsOfferSlot(%d) = true, want false", slot)
		}
	}
}

func TestRegionsCoverEditableHalf(t *testing.T) {
	if len(OfferSlots) != 15 {
		t.Errorf("len(OfferSlots) = %d, want 15", len(OfferSlots))
	}

	seen := make(map[int]bool)
	for _, slot := range OfferSlots {
		if seen[slot] {
			t.Errorf("offer slot %d listed twice", slot)
		}
		seen[slot] = true
	}
	for _, slot := range DecorSlots {
		if seen[slot] {
			t.Errorf("slot %d is both offer and decorative", slot)
		}
	}
}
