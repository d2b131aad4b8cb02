package actor

import (
	"sync"

	"github.com/Iron-Ham/barter/internal/grid"
)

// defaultStorageSlots is the private-storage capacity of a MemorySessions
// actor, matching a typical personal inventory.
const defaultStorageSlots = 36

// MemorySessions is an in-memory Sessions implementation used by the demo
// host and by tests. Each actor gets an openable view (viewer slots plus
// indicators) and a bounded private storage that stacks deposits.
type MemorySessions struct {
	mu       sync.Mutex
	views    map[ID]*memView
	storage  map[ID][]grid.Unit
	capacity int
	onClose  func(ID)
}

type memView struct {
	open   bool
	viewer map[int]grid.Unit
	self   IndicatorState
	other  IndicatorState
}

// NewMemorySessions creates a MemorySessions with default storage capacity.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		views:    make(map[ID]*memView),
		storage:  make(map[ID][]grid.Unit),
		capacity: defaultStorageSlots,
	}
}

// OnClose registers a hook invoked (outside the lock) whenever a view is
// force-closed. Hosts use it to route view-close into cancellation.
func (s *MemorySessions) OnClose(fn func(ID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = fn
}

// Open presents a fresh exchange view for the actor.
func (s *MemorySessions) Open(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.views[id] = &memView{
		open:   true,
		viewer: make(map[int]grid.Unit),
		self:   IndicatorState{Remaining: NoCountdown},
		other:  IndicatorState{Remaining: NoCountdown},
	}
}

// Valid implements Sessions.
func (s *MemorySessions) Valid(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	return ok && v.open
}

// Close implements Sessions.
func (s *MemorySessions) Close(id ID) {
	s.mu.Lock()
	v, ok := s.views[id]
	wasOpen := ok && v.open
	if wasOpen {
		v.open = false
	}
	hook := s.onClose
	s.mu.Unlock()

	if wasOpen && hook != nil {
		hook(id)
	}
}

// SetViewerSlot implements Sessions.
func (s *MemorySessions) SetViewerSlot(id ID, slot int, u grid.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views[id]
	if !ok || !v.open {
		return
	}
	if u.IsEmpty() {
		delete(v.viewer, slot)
		return
	}
	v.viewer[slot] = u
}

// SetSelfIndicator implements Sessions.
func (s *MemorySessions) SetSelfIndicator(id ID, state IndicatorState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[id]; ok {
		v.self = state
	}
}

// SetOtherIndicator implements Sessions.
func (s *MemorySessions) SetOtherIndicator(id ID, state IndicatorState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[id]; ok {
		v.other = state
	}
}

// Deposit implements Sessions. Existing stacks of the same type are topped
// up first; the rest opens new stacks while capacity allows. Overflow is
// returned to the caller.
func (s *MemorySessions) Deposit(id ID, u grid.Unit) grid.Unit {
	if u.IsEmpty() {
		return grid.Unit{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stacks := s.storage[id]
	remaining := u

	for i := range stacks {
		if !stacks[i].StacksWith(remaining) {
			continue
		}
		room := stacks[i].MaxStack - stacks[i].Quantity
		if room <= 0 {
			continue
		}
		moved := min(room, remaining.Quantity)
		stacks[i].Quantity += moved
		remaining.Quantity -= moved
		if remaining.Quantity <= 0 {
			s.storage[id] = stacks
			return grid.Unit{}
		}
	}

	for len(stacks) < s.capacity && remaining.Quantity > 0 {
		placed := remaining
		if placed.MaxStack > 0 && placed.Quantity > placed.MaxStack {
			placed.Quantity = placed.MaxStack
		}
		stacks = append(stacks, placed)
		remaining.Quantity -= placed.Quantity
	}
	s.storage[id] = stacks

	if remaining.Quantity <= 0 {
		return grid.Unit{}
	}
	return remaining
}

// Storage returns a copy of the actor's private storage stacks.
func (s *MemorySessions) Storage(id ID) []grid.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	stacks := s.storage[id]
	cp := make([]grid.Unit, len(stacks))
	copy(cp, stacks)
	return cp
}

// SetStorage replaces the actor's private storage. Intended for host setup.
func (s *MemorySessions) SetStorage(id ID, stacks []grid.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]grid.Unit, len(stacks))
	copy(cp, stacks)
	s.storage[id] = cp
}

// ViewerUnit returns the mirrored unit at a viewer slot, if the view exists.
func (s *MemorySessions) ViewerUnit(id ID, slot int) grid.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[id]; ok {
		return v.viewer[slot]
	}
	return grid.Unit{}
}

// SelfIndicator returns the actor's own readiness indicator state.
func (s *MemorySessions) SelfIndicator(id ID) IndicatorState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[id]; ok {
		return v.self
	}
	return IndicatorState{Remaining: NoCountdown}
}

// OtherIndicator returns the actor's view of the counterpart's readiness.
func (s *MemorySessions) OtherIndicator(id ID) IndicatorState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[id]; ok {
		return v.other
	}
	return IndicatorState{Remaining: NoCountdown}
}
