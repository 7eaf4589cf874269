package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
)

const (
	promoColumns = `id, code, discount_type, discount_value, min_order, max_uses, uses, active, created_at`

	getPromoByCodeSQL = `SELECT ` + promoColumns + `
		FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	getPromoByIDSQL = `SELECT ` + promoColumns + `
		FROM promo_codes WHERE id = $1`

	listPromosSQL = `SELECT ` + promoColumns + `
		FROM promo_codes ORDER BY created_at DESC`

	createPromoSQL = `INSERT INTO promo_codes (code, discount_type, discount_value, min_order, max_uses, active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	updatePromoSQL = `UPDATE promo_codes
		SET code = $1, discount_type = $2, discount_value = $3, min_order = $4, max_uses = $5, active = $6
		WHERE id = $7`

	deletePromoSQL = `DELETE FROM promo_codes WHERE id = $1`

	incrementPromoUsesSQL = `UPDATE promo_codes SET uses = uses + 1 WHERE id = $1`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active code case-insensitively.
// Returns promo.ErrNotFound when no matching active code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Code, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &c, nil
}

// FindByID returns a code record by id, active or not; the ledger rejects
// deactivated codes during validation.
func (r *PromoRepository) FindByID(ctx context.Context, id int64) (*promo.Code, error) {
	rows, err := r.pool.Query(ctx, getPromoByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding promo %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo %d: %w", id, err)
	}
	return &c, nil
}

// List returns all code records, newest first.
func (r *PromoRepository) List(ctx context.Context) ([]promo.Code, error) {
	rows, err := r.pool.Query(ctx, listPromosSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promo codes: %w", err)
	}
	return pgx.CollectRows(rows, scanPromoCode)
}

// Create inserts a new code record and returns its id.
// Returns promo.ErrDuplicateCode when the code already exists.
func (r *PromoRepository) Create(ctx context.Context, c *promo.Code) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, createPromoSQL,
		c.Code, c.DiscountType, c.DiscountValue, c.MinOrder, c.MaxUses, c.Active,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, promo.ErrDuplicateCode
		}
		return 0, fmt.Errorf("creating promo code %q: %w", c.Code, err)
	}
	return id, nil
}

// Update rewrites a code record. Returns promo.ErrNotFound when the id does
// not exist and promo.ErrDuplicateCode when the new code text collides.
func (r *PromoRepository) Update(ctx context.Context, c *promo.Code) error {
	tag, err := r.pool.Exec(ctx, updatePromoSQL,
		c.Code, c.DiscountType, c.DiscountValue, c.MinOrder, c.MaxUses, c.Active, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return promo.ErrDuplicateCode
		}
		return fmt.Errorf("updating promo %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrNotFound
	}
	return nil
}

// Delete removes a code record. Returns promo.ErrNotFound when it does not exist.
func (r *PromoRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deletePromoSQL, id)
	if err != nil {
		return fmt.Errorf("deleting promo %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrNotFound
	}
	return nil
}

// IncrementUses atomically increments the usage counter for the given code.
func (r *PromoRepository) IncrementUses(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, incrementPromoUsesSQL, id)
	if err != nil {
		return fmt.Errorf("incrementing uses for promo %d: %w", id, err)
	}
	return nil
}

func scanPromoCode(row pgx.CollectableRow) (promo.Code, error) {
	var (
		c            promo.Code
		discountType string
		maxUses      *int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &discountType, &c.DiscountValue, &c.MinOrder,
		&maxUses, &c.Uses, &c.Active, &c.CreatedAt,
	)
	c.DiscountType = pricing.DiscountType(discountType)
	if maxUses != nil {
		v := int(*maxUses)
		c.MaxUses = &v
	}
	return c, err
}
