package actor

import "sync"

// Roster is an in-memory Directory used by the demo host and by tests.
type Roster struct {
	mu     sync.RWMutex
	byID   map[ID]*entry
	byName map[string]ID
}

type entry struct {
	name      string
	connected bool
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{
		byID:   make(map[ID]*entry),
		byName: make(map[string]ID),
	}
}

// Add registers an actor as connected under the given display name.
func (r *Roster) Add(id ID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID[id]; ok {
		delete(r.byName, old.name)
	}
	r.byID[id] = &entry{name: name, connected: true}
	r.byName[name] = id
}

// SetConnected flips an actor's connectivity. Unknown actors are ignored.
func (r *Roster) SetConnected(id ID, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byID[id]; ok {
		e.connected = connected
	}
}

// Rename updates an actor's display name.
func (r *Roster) Rename(id ID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byName, e.name)
	e.name = name
	r.byName[name] = id
}

// Resolve implements Directory.
func (r *Roster) Resolve(name string) (ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return "", false
	}
	return id, r.byID[id].connected
}

// Connected implements Directory.
func (r *Roster) Connected(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	return ok && e.connected
}

// Name implements Directory.
func (r *Roster) Name(id ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byID[id]; ok {
		return e.name
	}
	return ""
}
