// Package notify defines the fire-and-forget notification channel the core
// uses to reach actors. Messages are structured (kind, fields, optional
// action affordances) and carry no rendered text; templating and
// localization belong to the delivering host.
package notify

import "github.com/Iron-Ham/barter/internal/actor"

// Kind identifies what a message is about.
type Kind string

// Message kinds delivered by the exchange core.
const (
	KindRequestReceived Kind = "request.received"
	KindRequestAccepted Kind = "request.accepted"
	KindRequestDenied   Kind = "request.denied"
	KindReadyChanged    Kind = "ready.changed"
	KindCountdown       Kind = "countdown"
	KindCompleted       Kind = "completed"
	KindCancelled       Kind = "cancelled"
)

// Action is an affordance embedded in a message, e.g. the accept/deny
// choices on an incoming trade request. Command is host-dispatchable.
type Action struct {
	Label   string `json:"label"`
	Command string `json:"command"`
}

// Message is a structured notification for one actor.
type Message struct {
	Kind     Kind     `json:"kind"`
	From     actor.ID `json:"from,omitempty"`
	FromName string   `json:"from_name,omitempty"`
	// Ready carries the new flag value for KindReadyChanged.
	Ready bool `json:"ready,omitempty"`
	// Remaining carries the countdown value for KindCountdown.
	Remaining int `json:"remaining,omitempty"`
	// Sound is an opaque playback hint for the host.
	Sound   string   `json:"sound,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Notifier delivers messages to actors. Delivery is fire-and-forget: the
// core never waits on it and never observes failures.
type Notifier interface {
	Notify(to actor.ID, msg Message)
}

// NewRequestReceived builds the recipient-facing request notification with
// embedded accept and deny affordances.
func NewRequestReceived(from actor.ID, fromName string) Message {
	return Message{
		Kind:     KindRequestReceived,
		From:     from,
		FromName: fromName,
		Actions: []Action{
			{Label: "Accept", Command: "/trade accept " + fromName},
			{Label: "Deny", Command: "/trade deny " + fromName},
		},
	}
}

// NewRequestAccepted builds the acceptance notification. The sound field is
// a host-interpreted celebratory cue.
func NewRequestAccepted(from actor.ID, fromName string) Message {
	return Message{
		Kind:     KindRequestAccepted,
		From:     from,
		FromName: fromName,
		Sound:    "levelup",
	}
}

// NewRequestDenied builds the denial notification.
func NewRequestDenied(from actor.ID, fromName string) Message {
	return Message{Kind: KindRequestDenied, From: from, FromName: fromName}
}

// NewReadyChanged builds the counterpart-facing readiness notification.
func NewReadyChanged(from actor.ID, fromName string, ready bool) Message {
	return Message{Kind: KindReadyChanged, From: from, FromName: fromName, Ready: ready}
}

// NewCountdown builds a countdown broadcast message.
func NewCountdown(from actor.ID, fromName string, remaining int) Message {
	return Message{Kind: KindCountdown, From: from, FromName: fromName, Remaining: remaining}
}

// NewCompleted builds the settlement notification.
func NewCompleted(from actor.ID, fromName string) Message {
	return Message{Kind: KindCompleted, From: from, FromName: fromName}
}

// NewCancelled builds the cancellation notification.
func NewCancelled(from actor.ID, fromName string) Message {
	return Message{Kind: KindCancelled, From: from, FromName: fromName}
}
