// Package order owns the order entity, its status state machine, and the
// checkout service that prices carts and drives notifications.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Transitions only move forward; the two
// terminal states never leave.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the permitted next states per current state.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusDelivered},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is permitted.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvalidTransitionError indicates an illegal status change request.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return "invalid order transition " + string(e.From) + " -> " + string(e.To)
}

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned when an order id does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when a status transition keeps losing the race
	// against a concurrent update after a retry.
	ErrConflict = errors.New("order modified concurrently")
)

// Customer holds the contact details captured at checkout.
type Customer struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

// Item is a line snapshotted into the order at checkout: name and unit price
// are copied from the menu at order time and never re-read afterwards.
type Item struct {
	MenuItemID string
	Name       string
	Price      decimal.Decimal
	Quantity   int
}

// Order is a placed customer order. Total is authoritative: computed once at
// creation and never recomputed from items. Status changes only through the
// state machine; everything else is immutable after creation.
type Order struct {
	ID        string
	Customer  Customer
	Items     []Item
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	PromoID   *int64
	Status    Status
	CreatedAt time.Time
}

// Repository defines persistence for orders. UpdateStatus performs a
// conditional write: the row is updated only when its persisted status still
// equals expected, and the implementation reports whether the write applied.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, expected, next Status) (applied bool, err error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}
