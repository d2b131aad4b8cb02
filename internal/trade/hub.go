// Package trade assembles the exchange core: the negotiation chains, the
// mutation gatekeeper, the readiness coordinator, cancellation and the apply
// loop, wired over host-supplied directory, session and notification
// surfaces. The Hub is the single entry point a host embeds.
package trade

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/apply"
	"github.com/Iron-Ham/barter/internal/audit"
	"github.com/Iron-Ham/barter/internal/cancel"
	"github.com/Iron-Ham/barter/internal/config"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/gate"
	"github.com/Iron-Ham/barter/internal/grid"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/mirror"
	"github.com/Iron-Ham/barter/internal/negotiate"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/ready"
	"github.com/Iron-Ham/barter/internal/request"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Hub is the assembled exchange core. Negotiation and offer mutation are
// synchronous; readiness, cancellation and teardown are handed to the apply
// loop so they serialize with the deferred mirror passes.
type Hub struct {
	cfg *config.Config
	log *logging.Logger

	bus  *event.Bus
	loop *apply.Loop

	requests     *request.Registry
	transactions *transaction.Registry

	negotiator *negotiate.Negotiator
	keeper     *gate.Keeper
	readiness  *ready.Coordinator
	canceller  *cancel.Coordinator
}

// New assembles a Hub over the host's directory, session and notification
// surfaces. A nil sink disables audit persistence; a nil config uses
// defaults.
func New(
	cfg *config.Config,
	directory actor.Directory,
	sessions actor.Sessions,
	notifier notify.Notifier,
	sink audit.Sink,
	log *logging.Logger,
) *Hub {
	if cfg == nil {
		cfg = config.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	if log == nil {
		log = logging.NopLogger()
	}

	bus := event.NewBus()
	loop := apply.NewLoop(cfg.Trade.QueueCapacity, log)

	requests := request.NewRegistry()
	transactions := transaction.NewRegistry()

	mirrorEngine := mirror.NewEngine(sessions, directory, bus, log)
	canceller := cancel.NewCoordinator(transactions, sessions, directory, notifier, bus, log)

	return &Hub{
		cfg:          cfg,
		log:          log,
		bus:          bus,
		loop:         loop,
		requests:     requests,
		transactions: transactions,
		negotiator:   negotiate.NewNegotiator(requests, transactions, directory, notifier, bus, log),
		keeper:       gate.NewKeeper(transactions, mirrorEngine, loop, log),
		readiness: ready.NewCoordinator(
			transactions, sessions, directory, notifier, canceller, sink, bus, loop, log,
			cfg.Trade.CountdownTicks, cfg.Trade.TickInterval()),
		canceller: canceller,
	}
}

// Request submits a directed trade request to the actor named recipientName.
func (h *Hub) Request(sender actor.ID, recipientName string) negotiate.Outcome {
	return h.negotiator.Request(sender, recipientName)
}

// Accept accepts the pending request from the actor named requesterName and,
// on success, creates the live transaction.
func (h *Hub) Accept(acceptor actor.ID, requesterName string) negotiate.Outcome {
	_, outcome := h.negotiator.Accept(acceptor, requesterName)
	return outcome
}

// Deny rejects the pending request from the actor named requesterName.
func (h *Hub) Deny(denier actor.ID, requesterName string) negotiate.Outcome {
	return h.negotiator.Deny(denier, requesterName)
}

// Edit attempts a bulk offer mutation; admission is synchronous, mirroring
// and diffing are deferred.
func (h *Hub) Edit(id actor.ID, changes map[int]grid.Unit) gate.Result {
	return h.keeper.Apply(id, changes)
}

// Move attempts a shift-style placement into the actor's offer and returns
// the unplaced remainder.
func (h *Hub) Move(id actor.ID, u grid.Unit) (grid.Unit, gate.Result) {
	return h.keeper.Move(id, u)
}

// ToggleReady defers a readiness toggle onto the apply loop.
func (h *Hub) ToggleReady(id actor.ID) error {
	return h.loop.Defer(func() { h.readiness.Toggle(id) })
}

// Cancel defers cancellation of the actor's live transaction, if any.
func (h *Hub) Cancel(id actor.ID) error {
	return h.loop.Defer(func() { h.canceller.Cancel(id) })
}

// ViewClosed reports that the actor's exchange view closed. A closed view
// mid-trade is a cancellation trigger like any other.
func (h *Hub) ViewClosed(id actor.ID) error {
	return h.loop.Defer(func() { h.canceller.Cancel(id) })
}

// Disconnect reports that the actor left. Their live transaction, if any,
// is cancelled first, then every pending request touching them is swept.
func (h *Hub) Disconnect(id actor.ID) error {
	return h.loop.Defer(func() {
		h.canceller.Cancel(id)
		h.requests.ClearSent(id)
		h.requests.ClearReceived(id)
	})
}

// InTrade reports whether the actor currently participates in a live
// transaction.
func (h *Hub) InTrade(id actor.ID) bool {
	return h.transactions.FindByActor(id) != nil
}

// Bus exposes the event bus for host-side observers.
func (h *Hub) Bus() *event.Bus {
	return h.bus
}

// Close drains the apply loop and shuts the hub down.
func (h *Hub) Close() {
	h.loop.Close()
	h.bus.Clear()
}
