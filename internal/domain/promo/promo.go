// Package promo implements the promo-code ledger: validation of discount
// codes against a cart subtotal and usage accounting once an order referencing
// a code has been placed.
package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when no active code matches.
	ErrNotFound = errors.New("promo code not found")
	// ErrExpired is returned when a code has exhausted its allowed uses.
	ErrExpired = errors.New("promo code has expired")
	// ErrBelowMinimum is returned when the cart subtotal does not reach the
	// code's minimum order value.
	ErrBelowMinimum = errors.New("order below promo minimum")
	// ErrDuplicateCode is returned when creating or renaming a code would
	// collide with an existing one (case-insensitive).
	ErrDuplicateCode = errors.New("promo code already exists")
)

// Code is a stored promo code record. Codes are normalized to uppercase on
// write and matched case-insensitively on lookup. Uses only ever increases,
// and only after a confirmed order placement referencing the code.
type Code struct {
	ID            int64
	Code          string
	DiscountType  pricing.DiscountType
	DiscountValue decimal.Decimal
	MinOrder      decimal.Decimal
	MaxUses       *int // nil = unlimited
	Uses          int
	Active        bool
	CreatedAt     time.Time
}

// Validation is the result of a successful Validate call.
type Validation struct {
	PromoID  int64
	Discount decimal.Decimal
}

// Repository provides storage for promo codes. IncrementUses must be an
// atomic store-side increment, not an application-level read-modify-write.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
	FindByID(ctx context.Context, id int64) (*Code, error)
	List(ctx context.Context) ([]Code, error)
	Create(ctx context.Context, c *Code) (int64, error)
	Update(ctx context.Context, c *Code) error
	Delete(ctx context.Context, id int64) error
	IncrementUses(ctx context.Context, id int64) error
}
