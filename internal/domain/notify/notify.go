// Package notify defines the notification contract the order flow depends on.
// Implementations deliver rendered templates over some channel (SMTP in this
// repo); the order service only sees the Dispatcher interface and never fails
// an operation because a notification could not be sent.
package notify

import (
	"context"
	"time"
)

// EventKind identifies which template a notification renders.
type EventKind string

const (
	// EventOrderCreated fires after checkout persists a new order.
	EventOrderCreated EventKind = "orderCreated"
	// EventStatusChanged fires after a successful status transition.
	EventStatusChanged EventKind = "statusChanged"
)

// Audience selects which template variant a recipient receives.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceStaff    Audience = "staff"
)

// Recipient is a single delivery target.
type Recipient struct {
	Email    string
	Audience Audience
}

// Result reports the delivery outcome for one recipient.
type Result struct {
	Recipient Recipient
	Err       error
}

// Event carries everything needed to render and address a notification.
// Order data is passed as an already-flattened variable map (see the Vars
// builders in render.go) so dispatchers stay decoupled from the order type.
type Event struct {
	Kind       EventKind
	OrderID    string
	Vars       map[string]string
	OccurredAt time.Time
}

// Dispatcher delivers an event to each recipient. It returns per-recipient
// results and never an overall error: one recipient's failure must not block
// the others, and no failure propagates to the triggering operation.
type Dispatcher interface {
	Notify(ctx context.Context, ev Event, recipients []Recipient) []Result
}

// Discard is a Dispatcher that drops every event. Useful in tests and when
// email is disabled.
type Discard struct{}

func (Discard) Notify(_ context.Context, _ Event, recipients []Recipient) []Result {
	results := make([]Result, len(recipients))
	for i, r := range recipients {
		results[i] = Result{Recipient: r}
	}
	return results
}
