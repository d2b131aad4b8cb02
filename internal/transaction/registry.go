package transaction

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/barter/internal/actor"
)

// Registry indexes live transactions by id and by participant. It does not
// itself enforce the one-live-transaction-per-actor invariant; callers
// verify that before registering. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Transaction
	byActor map[actor.ID]uuid.UUID
}

// NewRegistry creates an empty transaction registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[uuid.UUID]*Transaction),
		byActor: make(map[actor.ID]uuid.UUID),
	}
}

// FindByActor returns the live transaction the actor participates in, or nil.
func (r *Registry) FindByActor(id actor.ID) *Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txID, ok := r.byActor[id]
	if !ok {
		return nil
	}
	return r.byID[txID]
}

// FindByID returns the transaction with the given id, or nil.
func (r *Registry) FindByID(id uuid.UUID) *Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Register inserts the id-indexed entry and both participant entries.
func (r *Registry) Register(t *Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[t.ID()] = t
	r.byActor[t.A()] = t.ID()
	r.byActor[t.B()] = t.ID()
}

// RegisterIfFree inserts the transaction only if neither participant already
// has a live one, doing the check and the insert under one write lock so two
// racing registrations cannot both claim the same actor. Returns false with
// the registry untouched when either party is taken.
func (r *Registry) RegisterIfFree(t *Transaction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byActor[t.A()]; ok {
		return false
	}
	if _, ok := r.byActor[t.B()]; ok {
		return false
	}
	r.byID[t.ID()] = t
	r.byActor[t.A()] = t.ID()
	r.byActor[t.B()] = t.ID()
	return true
}

// Unregister removes all three index entries. A no-op if the transaction is
// already absent.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byActor, t.A())
	delete(r.byActor, t.B())
}

// Len returns the number of live transactions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
