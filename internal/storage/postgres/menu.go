package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/menu"
)

const (
	listCategoriesSQL = `SELECT id, name, description
		FROM menu_categories ORDER BY position, id`

	listItemsSQL = `SELECT id, category_id, name, description, price, image,
		is_vegetarian, is_vegan, is_spicy, spice_level, allergens, is_popular
		FROM menu_items ORDER BY position, id`

	getItemByIDSQL = `SELECT id, category_id, name, description, price, image,
		is_vegetarian, is_vegan, is_spicy, spice_level, allergens, is_popular
		FROM menu_items WHERE id = $1`

	getItemsByIDsSQL = `SELECT id, category_id, name, description, price, image,
		is_vegetarian, is_vegan, is_spicy, spice_level, allergens, is_popular
		FROM menu_items WHERE id = ANY($1)`

	insertCategorySQL = `INSERT INTO menu_categories (id, name, description, position)
		VALUES ($1, $2, $3, $4)`

	insertItemSQL = `INSERT INTO menu_items (id, category_id, name, description, price, image,
		is_vegetarian, is_vegan, is_spicy, spice_level, allergens, is_popular, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// GetMenu returns the full catalog in display order.
func (r *MenuRepository) GetMenu(ctx context.Context) (*menu.Menu, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	rows, err = r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}

	return &menu.Menu{Categories: categories, Items: items}, nil
}

// GetItem returns a single menu item by its identifier.
func (r *MenuRepository) GetItem(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &it, nil
}

// GetItems returns menu items matching any of the given IDs.
func (r *MenuRepository) GetItems(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// ReplaceAll swaps the entire catalog inside one transaction. Positions record
// the submitted order so GetMenu returns it unchanged.
func (r *MenuRepository) ReplaceAll(ctx context.Context, m *menu.Menu) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning menu transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Clearing categories first cascades onto their items; the second delete
	// only sweeps up orphaned rows.
	if _, err := tx.Exec(ctx, `DELETE FROM menu_categories`); err != nil {
		return fmt.Errorf("clearing categories: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("clearing menu items: %w", err)
	}

	for i, c := range m.Categories {
		if _, err := tx.Exec(ctx, insertCategorySQL, c.ID, c.Name, c.Description, i); err != nil {
			return fmt.Errorf("inserting category %q: %w", c.ID, err)
		}
	}
	for i, it := range m.Items {
		_, err := tx.Exec(ctx, insertItemSQL,
			it.ID, it.CategoryID, it.Name, it.Description, it.Price, it.Image,
			it.IsVegetarian, it.IsVegan, it.IsSpicy, it.SpiceLevel, it.Allergens, it.IsPopular, i,
		)
		if err != nil {
			return fmt.Errorf("inserting menu item %q: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing menu transaction: %w", err)
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (menu.Category, error) {
	var c menu.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description)
	return c, err
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		it    menu.Item
		price decimal.Decimal
	)
	err := row.Scan(
		&it.ID, &it.CategoryID, &it.Name, &it.Description, &price, &it.Image,
		&it.IsVegetarian, &it.IsVegan, &it.IsSpicy, &it.SpiceLevel, &it.Allergens, &it.IsPopular,
	)
	it.Price = price
	return it, err
}
