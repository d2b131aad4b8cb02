// Package actor defines the identities that participate in exchanges and the
// collaborator interfaces the core consumes to reach them: a directory for
// name/presence resolution and a session surface for each actor's live
// exchange view. The core references actors, it never owns them.
package actor

import "github.com/Iron-Ham/barter/internal/grid"

// ID is an actor's opaque, stable identifier.
type ID string

// NoCountdown is the Remaining value of an indicator when no countdown is
// running.
const NoCountdown = -1

// IndicatorState is the readiness status rendered in a party's view.
type IndicatorState struct {
	Ready     bool
	Remaining int // seconds left in an active countdown, or NoCountdown
}

// Directory resolves display names to identities and answers presence
// questions. Implementations must be safe for concurrent use.
type Directory interface {
	// Resolve maps a display name to an actor ID. reachable is false when
	// the name is unknown or the actor is not currently connected.
	Resolve(name string) (id ID, reachable bool)

	// Connected reports whether the actor is currently connected.
	Connected(id ID) bool

	// Name returns the actor's current display name, or "" if unknown.
	Name(id ID) string
}

// Sessions probes and drives per-actor exchange views. Implementations must
// be safe for concurrent use; the core calls in from both the apply loop and
// caller contexts.
type Sessions interface {
	// Valid reports whether the actor currently presents a valid
	// synchronized exchange view.
	Valid(id ID) bool

	// Close force-closes the actor's exchange view. Closing an absent view
	// is a no-op.
	Close(id ID)

	// SetViewerSlot writes a mirrored unit into the actor's read-only viewer
	// region. An empty unit is an explicit clear, never a skip.
	SetViewerSlot(id ID, slot int, u grid.Unit)

	// SetSelfIndicator updates the actor's own readiness indicator.
	SetSelfIndicator(id ID, state IndicatorState)

	// SetOtherIndicator updates the actor's view of the counterpart's
	// readiness.
	SetOtherIndicator(id ID, state IndicatorState)

	// Deposit delivers a unit into the actor's private storage, merging into
	// existing stacks where possible. The unplaced overflow is returned;
	// callers decide how to surface it, it is never silently destroyed.
	Deposit(id ID, u grid.Unit) grid.Unit
}
