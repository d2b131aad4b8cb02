// Package negotiate implements the request lifecycle that precedes a live
// transaction: submitting a directed request, accepting one, denying one.
// Each operation is an ordered guard chain; the first failing guard decides
// the outcome, and rejections are values rather than errors because a busy
// counterpart or a stale request is expected traffic, not a fault.
package negotiate

import (
	"github.com/Iron-Ham/barter/internal/actor"
	"github.com/Iron-Ham/barter/internal/errors"
	"github.com/Iron-Ham/barter/internal/event"
	"github.com/Iron-Ham/barter/internal/logging"
	"github.com/Iron-Ham/barter/internal/notify"
	"github.com/Iron-Ham/barter/internal/request"
	"github.com/Iron-Ham/barter/internal/transaction"
)

// Outcome is the result of a negotiation operation.
type Outcome string

// Negotiation outcomes, one per guard.
const (
	OK Outcome = "ok"

	// Request guards, in evaluation order.
	SenderAlreadyTrading    Outcome = "sender_already_trading"
	RecipientUnavailable    Outcome = "recipient_unavailable"
	SelfTrade               Outcome = "self_trade"
	RecipientAlreadyTrading Outcome = "recipient_already_trading"
	DuplicateRequest        Outcome = "duplicate_request"
	ReciprocalPending       Outcome = "reciprocal_request_pending"

	// Accept and deny guards.
	AcceptorAlreadyTrading  Outcome = "acceptor_already_trading"
	RequesterAlreadyTrading Outcome = "requester_already_trading"
	NoRequestFound          Outcome = "no_request_found"
)

// Negotiator runs the request guard chains and, on acceptance, creates the
// live transaction.
type Negotiator struct {
	requests     *request.Registry
	transactions *transaction.Registry
	directory    actor.Directory
	notifier     notify.Notifier
	bus          *event.Bus
	log          *logging.Logger
}

// NewNegotiator creates a negotiator.
func NewNegotiator(
	requests *request.Registry,
	transactions *transaction.Registry,
	directory actor.Directory,
	notifier notify.Notifier,
	bus *event.Bus,
	log *logging.Logger,
) *Negotiator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Negotiator{
		requests:     requests,
		transactions: transactions,
		directory:    directory,
		notifier:     notifier,
		bus:          bus,
		log:          log,
	}
}

// Request submits a directed trade request from sender to the actor named
// recipientName. Guard order is load-bearing: a sender who is both mid-trade
// and naming an unreachable recipient hears about their own trade first.
func (n *Negotiator) Request(sender actor.ID, recipientName string) Outcome {
	if n.transactions.FindByActor(sender) != nil {
		return SenderAlreadyTrading
	}

	recipient, reachable := n.directory.Resolve(recipientName)
	if !reachable {
		return RecipientUnavailable
	}
	if recipient == sender {
		return SelfTrade
	}
	if n.transactions.FindByActor(recipient) != nil {
		return RecipientAlreadyTrading
	}
	if n.requests.Has(sender, recipient) {
		return DuplicateRequest
	}
	if n.requests.Has(recipient, sender) {
		// The counterpart already asked; accepting that request is the way
		// forward, not stacking a second one.
		return ReciprocalPending
	}

	n.requests.Register(sender, recipient)
	n.notifier.Notify(recipient, notify.NewRequestReceived(sender, n.directory.Name(sender)))
	n.bus.Publish(event.NewRequestSubmittedEvent(string(sender), string(recipient)))

	n.log.Info("trade request submitted",
		"sender", string(sender), "recipient", string(recipient))
	return OK
}

// Accept accepts the pending request from the actor named requesterName. On
// success every pending request touching either party is swept away, the
// transaction is created with the requester as party A, and both parties are
// notified. The created transaction is returned on OK, nil otherwise.
func (n *Negotiator) Accept(acceptor actor.ID, requesterName string) (*transaction.Transaction, Outcome) {
	if n.transactions.FindByActor(acceptor) != nil {
		return nil, AcceptorAlreadyTrading
	}

	requester, reachable := n.directory.Resolve(requesterName)
	if !reachable {
		return nil, RecipientUnavailable
	}

	// The requester's trade status outranks request existence: accepting a
	// trade sweeps all of a party's pending requests, so a mid-trade
	// requester usually has no request left either, and the caller must
	// hear about the trade, not the swept request.
	if n.transactions.FindByActor(requester) != nil {
		return nil, RequesterAlreadyTrading
	}
	if !n.requests.Has(requester, acceptor) {
		return nil, NoRequestFound
	}

	tx := transaction.New(requester, acceptor)
	if !n.transactions.RegisterIfFree(tx) {
		// A concurrent accept or request claimed one of the parties between
		// the guard checks and registration.
		if n.transactions.FindByActor(acceptor) != nil {
			return nil, AcceptorAlreadyTrading
		}
		return nil, RequesterAlreadyTrading
	}

	// Both parties leave the request pool entirely: their own outgoing
	// requests and anything still addressed to them.
	n.requests.ClearSent(requester)
	n.requests.ClearReceived(requester)
	n.requests.ClearSent(acceptor)
	n.requests.ClearReceived(acceptor)

	n.notifier.Notify(requester, notify.NewRequestAccepted(acceptor, n.directory.Name(acceptor)))
	n.notifier.Notify(acceptor, notify.NewRequestAccepted(requester, n.directory.Name(requester)))
	n.bus.Publish(event.NewRequestAcceptedEvent(tx.ID().String(), string(requester), string(acceptor)))

	n.log.Info("trade request accepted",
		"transaction_id", tx.ID().String(),
		"requester", string(requester),
		"acceptor", string(acceptor))
	return tx, OK
}

// Deny rejects the pending request from the actor named requesterName. The
// requester is told even though they initiated; silence would leave their
// request looking alive.
func (n *Negotiator) Deny(denier actor.ID, requesterName string) Outcome {
	requester, reachable := n.directory.Resolve(requesterName)
	if !reachable {
		return RecipientUnavailable
	}
	if !n.requests.Has(requester, denier) {
		return NoRequestFound
	}

	if err := n.requests.Unregister(requester, denier); err != nil {
		if errors.IsNotFound(err) {
			n.log.Error("request index inconsistency on deny",
				"requester", string(requester),
				"denier", string(denier),
				"error", err)
			return NoRequestFound
		}
		n.log.Error("failed to unregister request",
			"requester", string(requester), "denier", string(denier), "error", err)
		return NoRequestFound
	}

	n.notifier.Notify(requester, notify.NewRequestDenied(denier, n.directory.Name(denier)))
	n.bus.Publish(event.NewRequestDeniedEvent(string(requester), string(denier)))

	n.log.Info("trade request denied",
		"requester", string(requester), "denier", string(denier))
	return OK
}
