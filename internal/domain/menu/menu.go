// Package menu holds the catalog records served to customers. Orders never
// reference these rows directly; checkout snapshots name and price into the
// order itself, so later menu edits cannot rewrite order history.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when a requested menu item does not exist.
var ErrItemNotFound = errors.New("menu item not found")

// Category groups menu items for display.
type Category struct {
	ID          string
	Name        string
	Description string
}

// Item is a single dish on the menu. SpiceLevel runs 0 (none) to 4 (very hot).
type Item struct {
	ID           string
	CategoryID   string
	Name         string
	Description  string
	Price        decimal.Decimal
	Image        string
	IsVegetarian bool
	IsVegan      bool
	IsSpicy      bool
	SpiceLevel   int
	Allergens    []string
	IsPopular    bool
}

// Menu is the full catalog as served to the storefront.
type Menu struct {
	Categories []Category
	Items      []Item
}

// Repository provides catalog storage. ReplaceAll is the admin "save menu"
// operation: it swaps the entire catalog inside one transaction, so a failure
// mid-way never leaves the menu empty.
type Repository interface {
	GetMenu(ctx context.Context) (*Menu, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	GetItems(ctx context.Context, ids []string) ([]Item, error)
	ReplaceAll(ctx context.Context, m *Menu) error
}
