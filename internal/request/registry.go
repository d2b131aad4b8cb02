// Package request implements the registry of pending, directed trade
// requests. The underlying relation is a set of ordered (sender, recipient)
// pairs held in two mutually consistent indexes, recipient to senders and
// sender to recipients, so both directions answer in O(1).
//
// The registry is sharded by unordered actor pair: both indexes for a given
// pair live in the same shard and are updated under one shard lock, which
// keeps any single register/unregister atomic while unrelated pairs never
// contend on a shared lock.
package request

import (
	"hash/fnv"
	"sync"

	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/errors"
)

// shardCount is the number of lock shards. Power of two for cheap masking.
const shardCount = 16

// Registry tracks pending directed requests between actors. Safe for
// arbitrary concurrent callers.
type Registry struct {
	shards [shardCount]shard
}

type shard struct {
	mu sync.Mutex
	// received: recipient -> set of senders with a live request to them.
	received map[actor.ID]map[actor.ID]struct{}
	// sent: sender -> set of recipients of their live requests.
	sent map[actor.ID]map[actor.ID]struct{}
}

// NewRegistry creates an empty request registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].received = make(map[actor.ID]map[actor.ID]struct{})
		r.shards[i].sent = make(map[actor.ID]map[actor.ID]struct{})
	}
	return r
}

// shardFor returns the shard owning the unordered (a, b) pair.
func (r *Registry) shardFor(a, b actor.ID) *shard {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	h := fnv.New32a()
	h.Write([]byte(lo))
	h.Write([]byte{0})
	h.Write([]byte(hi))
	return &r.shards[h.Sum32()&(shardCount-1)]
}

// Has reports whether a live request sender→recipient exists.
func (r *Registry) Has(sender, recipient actor.ID) bool {
	s := r.shardFor(sender, recipient)
	s.mu.Lock()
	defer s.mu.Unlock()

	senders, ok := s.received[recipient]
	if !ok {
		return false
	}
	_, ok = senders[sender]
	return ok
}

// Register inserts a sender→recipient request into both indexes.
// Registering an already-present pair is a no-op.
func (r *Registry) Register(sender, recipient actor.ID) {
	s := r.shardFor(sender, recipient)
	s.mu.Lock()
	defer s.mu.Unlock()

	senders, ok := s.received[recipient]
	if !ok {
		senders = make(map[actor.ID]struct{})
		s.received[recipient] = senders
	}
	senders[sender] = struct{}{}

	recipients, ok := s.sent[sender]
	if !ok {
		recipients = make(map[actor.ID]struct{})
		s.sent[sender] = recipients
	}
	recipients[recipient] = struct{}{}
}

// Unregister removes a sender→recipient request from both indexes. The pair
// being absent from either index is an internal-consistency violation and is
// reported as a not-found error; callers log it loudly and fail only the
// single operation.
func (r *Registry) Unregister(sender, recipient actor.ID) error {
	s := r.shardFor(sender, recipient)
	s.mu.Lock()
	defer s.mu.Unlock()

	senders, ok := s.received[recipient]
	if !ok {
		return errors.NewNotFoundError("request recipient", string(recipient)).
			WithCause(errors.ErrRequestNotFound)
	}
	if _, ok := senders[sender]; !ok {
		return errors.NewNotFoundError("request sender", string(sender)).
			WithCause(errors.ErrRequestNotFound)
	}
	recipients, ok := s.sent[sender]
	if !ok {
		return errors.NewNotFoundError("request sender", string(sender)).
			WithCause(errors.ErrRequestNotFound)
	}

	delete(senders, sender)
	if len(senders) == 0 {
		delete(s.received, recipient)
	}
	delete(recipients, recipient)
	if len(recipients) == 0 {
		delete(s.sent, sender)
	}
	return nil
}

// ClearSent removes every outgoing request from the actor, pruning the
// recipient index entries, and returns the recipients that had one.
// Returns nil when the actor had no outgoing requests.
func (r *Registry) ClearSent(id actor.ID) []actor.ID {
	var cleared []actor.ID
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		recipients, ok := s.sent[id]
		if !ok {
			s.mu.Unlock()
			continue
		}
		delete(s.sent, id)
		for recipient := range recipients {
			if senders, ok := s.received[recipient]; ok {
				delete(senders, id)
				if len(senders) == 0 {
					delete(s.received, recipient)
				}
			}
			cleared = append(cleared, recipient)
		}
		s.mu.Unlock()
	}
	return cleared
}

// ClearReceived removes every incoming request to the actor, pruning the
// sender index entries, and returns the senders that had one.
// Returns nil when the actor had no incoming requests.
func (r *Registry) ClearReceived(id actor.ID) []actor.ID {
	var cleared []actor.ID
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		senders, ok := s.received[id]
		if !ok {
			s.mu.Unlock()
			continue
		}
		delete(s.received, id)
		for sender := range senders {
			if recipients, ok := s.sent[sender]; ok {
				delete(recipients, id)
				if len(recipients) == 0 {
					delete(s.sent, sender)
				}
			}
			cleared = append(cleared, sender)
		}
		s.mu.Unlock()
	}
	return cleared
}
