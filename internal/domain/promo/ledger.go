package promo

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
)

// Ledger validates codes and tracks their usage. Validate is side-effect-free
// and may be called repeatedly while a customer edits their cart; RecordUsage
// is invoked by the order service exactly once per placed order.
type Ledger struct {
	repo Repository
}

// NewLedger creates a Ledger backed by the given Repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Validate checks the code against the subtotal and returns the discount it
// would grant. It never mutates the usage counter.
func (l *Ledger) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Validation, error) {
	c, err := l.repo.FindByCode(ctx, strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}
	return l.validate(c, subtotal)
}

func (l *Ledger) validate(c *Code, subtotal decimal.Decimal) (*Validation, error) {
	// FindByID loads deactivated codes too; a code switched off by an admin
	// must stop granting discounts immediately, whichever path found it.
	if !c.Active {
		return nil, ErrNotFound
	}
	if c.MaxUses != nil && c.Uses >= *c.MaxUses {
		return nil, ErrExpired
	}
	if subtotal.LessThan(c.MinOrder) {
		return nil, ErrBelowMinimum
	}

	discount, err := pricing.Discount(subtotal, c.DiscountType, c.DiscountValue)
	if err != nil {
		return nil, err
	}

	return &Validation{PromoID: c.ID, Discount: discount}, nil
}

// ValidateByID re-validates a code at checkout time by its id, against the
// subtotal the order will actually be priced with. Same rules as Validate,
// same absence of side effects.
func (l *Ledger) ValidateByID(ctx context.Context, promoID int64, subtotal decimal.Decimal) (*Validation, error) {
	c, err := l.repo.FindByID(ctx, promoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}
	return l.validate(c, subtotal)
}

// RecordUsage increments the usage counter for a placed order. Best-effort
// accounting: callers log failures but never roll back the order.
func (l *Ledger) RecordUsage(ctx context.Context, promoID int64) error {
	if err := l.repo.IncrementUses(ctx, promoID); err != nil {
		return errors.Wrap(err, "increment promo uses")
	}
	return nil
}

// Create stores a new code, normalized to uppercase.
// Returns ErrDuplicateCode when the code already exists.
func (l *Ledger) Create(ctx context.Context, c *Code) (int64, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return 0, errors.New("code is required")
	}
	if c.DiscountValue.IsNegative() {
		return 0, errors.New("discount value must not be negative")
	}
	return l.repo.Create(ctx, c)
}

// Update rewrites an existing code record, normalizing the code text.
func (l *Ledger) Update(ctx context.Context, c *Code) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return errors.New("code is required")
	}
	return l.repo.Update(ctx, c)
}

// Delete removes a code record.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	return l.repo.Delete(ctx, id)
}

// List returns all code records for the admin view.
func (l *Ledger) List(ctx context.Context) ([]Code, error) {
	return l.repo.List(ctx)
}
