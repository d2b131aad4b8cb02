// Package event defines the event bus and the event types published by the
// exchange core. Events let the hosting layer (CLI, view host, metrics)
// observe negotiation, offer mutation, readiness and settlement without the
// core depending on it.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g. "request.accepted", "trade.completed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Negotiation Events
// -----------------------------------------------------------------------------

// RequestSubmittedEvent is emitted when a directed trade request is registered.
type RequestSubmittedEvent struct {
	baseEvent
	Sender    string // actor ID of the requester
	Recipient string // actor ID of the recipient
}

// NewRequestSubmittedEvent creates a RequestSubmittedEvent.
func NewRequestSubmittedEvent(sender, recipient string) RequestSubmittedEvent {
	return RequestSubmittedEvent{
		baseEvent: newBaseEvent("request.submitted"),
		Sender:    sender,
		Recipient: recipient,
	}
}

// RequestAcceptedEvent is emitted when a request is accepted and a
// transaction is created. Requester is party A, Acceptor is party B.
type RequestAcceptedEvent struct {
	baseEvent
	TransactionID string
	Requester     string
	Acceptor      string
}

// NewRequestAcceptedEvent creates a RequestAcceptedEvent.
func NewRequestAcceptedEvent(transactionID, requester, acceptor string) RequestAcceptedEvent {
	return RequestAcceptedEvent{
		baseEvent:     newBaseEvent("request.accepted"),
		TransactionID: transactionID,
		Requester:     requester,
		Acceptor:      acceptor,
	}
}

// RequestDeniedEvent is emitted when a pending request is denied.
type RequestDeniedEvent struct {
	baseEvent
	Requester string // actor whose request was denied
	Denier    string // actor who denied it
}

// NewRequestDeniedEvent creates a RequestDeniedEvent.
func NewRequestDeniedEvent(requester, denier string) RequestDeniedEvent {
	return RequestDeniedEvent{
		baseEvent: newBaseEvent("request.denied"),
		Requester: requester,
		Denier:    denier,
	}
}

// -----------------------------------------------------------------------------
// Offer Events
// -----------------------------------------------------------------------------

// OfferChangedEvent is emitted after a deferred diff pass appended change
// records to a transaction's audit log.
type OfferChangedEvent struct {
	baseEvent
	TransactionID string
	Actor         string // the party whose offer changed
	Changes       int    // number of change records appended
}

// NewOfferChangedEvent creates an OfferChangedEvent.
func NewOfferChangedEvent(transactionID, actorID string, changes int) OfferChangedEvent {
	return OfferChangedEvent{
		baseEvent:     newBaseEvent("offer.changed"),
		TransactionID: transactionID,
		Actor:         actorID,
		Changes:       changes,
	}
}

// -----------------------------------------------------------------------------
// Readiness and Settlement Events
// -----------------------------------------------------------------------------

// ReadinessChangedEvent is emitted when a party toggles their readiness flag.
type ReadinessChangedEvent struct {
	baseEvent
	TransactionID string
	Actor         string
	Ready         bool
}

// NewReadinessChangedEvent creates a ReadinessChangedEvent.
func NewReadinessChangedEvent(transactionID, actorID string, ready bool) ReadinessChangedEvent {
	return ReadinessChangedEvent{
		baseEvent:     newBaseEvent("readiness.changed"),
		TransactionID: transactionID,
		Actor:         actorID,
		Ready:         ready,
	}
}

// CountdownTickEvent is emitted on each settlement countdown tick.
type CountdownTickEvent struct {
	baseEvent
	TransactionID string
	Remaining     int
}

// NewCountdownTickEvent creates a CountdownTickEvent.
func NewCountdownTickEvent(transactionID string, remaining int) CountdownTickEvent {
	return CountdownTickEvent{
		baseEvent:     newBaseEvent("countdown.tick"),
		TransactionID: transactionID,
		Remaining:     remaining,
	}
}

// TradeCompletedEvent is emitted when a transaction finalizes and both
// parties received the counterpart's offer.
type TradeCompletedEvent struct {
	baseEvent
	TransactionID string
	Requester     string
	Acceptor      string
}

// NewTradeCompletedEvent creates a TradeCompletedEvent.
func NewTradeCompletedEvent(transactionID, requester, acceptor string) TradeCompletedEvent {
	return TradeCompletedEvent{
		baseEvent:     newBaseEvent("trade.completed"),
		TransactionID: transactionID,
		Requester:     requester,
		Acceptor:      acceptor,
	}
}

// TradeCancelledEvent is emitted when a transaction is cancelled.
type TradeCancelledEvent struct {
	baseEvent
	TransactionID string
	By            string // the actor whose trigger cancelled the trade
}

// NewTradeCancelledEvent creates a TradeCancelledEvent.
func NewTradeCancelledEvent(transactionID, by string) TradeCancelledEvent {
	return TradeCancelledEvent{
		baseEvent:     newBaseEvent("trade.cancelled"),
		TransactionID: transactionID,
		By:            by,
	}
}
