// Command seed-db loads the initial catalog, promo codes, email templates,
// settings, and the admin account into a fresh database. Every statement is
// an upsert or insert-if-missing, so re-running it never clobbers operator
// edits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/user"
	"github.com/xenking/karuwa-takeaway/internal/storage/postgres"
)

type menuJSON struct {
	Categories []categoryJSON `json:"categories"`
	Items      []itemJSON     `json:"items"`
}

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type itemJSON struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"categoryId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	IsVegetarian bool            `json:"isVegetarian"`
	IsVegan      bool            `json:"isVegan"`
	IsSpicy      bool            `json:"isSpicy"`
	SpiceLevel   int             `json:"spiceLevel"`
	Allergens    []string        `json:"allergens"`
	IsPopular    bool            `json:"isPopular"`
}

func main() {
	var (
		databaseURL   string
		menuFile      string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or KARUWA_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("KARUWA_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or KARUWA_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, pool, menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}
	if err := seedPromoCodes(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}
	if err := seedTemplates(ctx, pool); err != nil {
		return errors.Wrap(err, "seed email templates")
	}
	if err := seedAdmin(ctx, pool, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool, menuFile string) error {
	slog.Info("reading menu file", slog.String("path", menuFile))

	data, err := os.ReadFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}

	var m menuJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "parse menu JSON")
	}

	slog.Info("upserting menu",
		slog.Int("categories", len(m.Categories)),
		slog.Int("items", len(m.Items)))

	const upsertCategory = `
		INSERT INTO menu_categories (id, name, description, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			position = EXCLUDED.position`

	for i, c := range m.Categories {
		if _, err := pool.Exec(ctx, upsertCategory, c.ID, c.Name, c.Description, i); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.ID)
		}
	}

	const upsertItem = `
		INSERT INTO menu_items (
			id, category_id, name, description, price, image,
			is_vegetarian, is_vegan, is_spicy, spice_level, allergens, is_popular, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			is_vegetarian = EXCLUDED.is_vegetarian,
			is_vegan = EXCLUDED.is_vegan,
			is_spicy = EXCLUDED.is_spicy,
			spice_level = EXCLUDED.spice_level,
			allergens = EXCLUDED.allergens,
			is_popular = EXCLUDED.is_popular,
			position = EXCLUDED.position`

	for i, it := range m.Items {
		allergens := it.Allergens
		if allergens == nil {
			allergens = []string{}
		}
		if _, err := pool.Exec(ctx, upsertItem,
			it.ID, it.CategoryID, it.Name, it.Description, it.Price, it.Image,
			it.IsVegetarian, it.IsVegan, it.IsSpicy, it.SpiceLevel, allergens, it.IsPopular, i,
		); err != nil {
			return errors.Wrapf(err, "upsert item %s", it.ID)
		}

		slog.Info("upserted item", slog.String("id", it.ID), slog.String("name", it.Name))
	}

	return nil
}

type promoSeed struct {
	code          string
	discountType  string
	discountValue decimal.Decimal
	minOrder      decimal.Decimal
	maxUses       *int
}

func seedPromoCodes(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding promo codes")

	vipUses := 100
	promos := []promoSeed{
		{code: "WELCOME10", discountType: "percentage", discountValue: decimal.NewFromInt(10), minOrder: decimal.NewFromInt(15)},
		{code: "SAVE5", discountType: "fixed", discountValue: decimal.NewFromInt(5), minOrder: decimal.NewFromInt(25)},
		{code: "FREESHIP", discountType: "fixed", discountValue: decimal.RequireFromString("2.50"), minOrder: decimal.NewFromInt(20)},
		{code: "VIP20", discountType: "percentage", discountValue: decimal.NewFromInt(20), minOrder: decimal.Zero, maxUses: &vipUses},
	}

	const insertPromo = `
		INSERT INTO promo_codes (code, discount_type, discount_value, min_order, max_uses, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT ((UPPER(code))) DO NOTHING`

	for _, p := range promos {
		if _, err := pool.Exec(ctx, insertPromo,
			p.code, p.discountType, p.discountValue, p.minOrder, p.maxUses,
		); err != nil {
			return errors.Wrapf(err, "insert promo %s", p.code)
		}

		slog.Info("seeded promo", slog.String("code", p.code))
	}

	return nil
}

type templateSeed struct {
	id          string
	name        string
	subject     string
	htmlContent string
	variables   []string
	description string
}

// Templates are insert-if-missing: operators edit them through the admin
// panel and a re-seed must not overwrite those edits.
func seedTemplates(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding email templates")

	templates := []templateSeed{
		{
			id:      notify.TemplateOrderConfirmation,
			name:    "Order Confirmation",
			subject: "Order Confirmed - {{restaurantName}} #{{orderNumber}}",
			htmlContent: `<html><body>
<h1>{{restaurantName}}</h1>
<p>Thank you, {{customerName}}! Your order #{{orderNumber}} was placed at {{orderTime}}.</p>
{{orderItems}}
<p><strong>Total: £{{orderTotal}}</strong></p>
<p>Delivery to: {{deliveryAddress}}</p>
<p>&copy; {{currentYear}} {{restaurantName}}</p>
</body></html>`,
			variables: []string{
				"restaurantName", "customerName", "customerPhone", "orderNumber",
				"orderTime", "orderItems", "orderTotal", "deliveryAddress", "currentYear",
			},
			description: "Sent to the customer after checkout",
		},
		{
			id:      notify.TemplateOrderStatusUpdate,
			name:    "Order Status Update",
			subject: "Order #{{orderNumber}} is now {{orderStatus}}",
			htmlContent: `<html><body>
<h1>{{restaurantName}}</h1>
<p>Hi {{customerName}}, your order #{{orderNumber}} is now <strong>{{orderStatus}}</strong>.</p>
<p>{{statusMessage}}</p>
<p>&copy; {{currentYear}} {{restaurantName}}</p>
</body></html>`,
			variables: []string{
				"restaurantName", "customerName", "orderNumber", "orderStatus",
				"statusMessage", "currentYear",
			},
			description: "Sent to the customer on every status change",
		},
		{
			id:      notify.TemplateStaffNewOrder,
			name:    "Staff New Order Alert",
			subject: "New order #{{orderNumber}} from {{customerName}}",
			htmlContent: `<html><body>
<h1>New Order</h1>
<p>{{customerName}} ({{customerPhone}}) placed order #{{orderNumber}} at {{orderTime}}.</p>
{{orderItems}}
<p><strong>Total: £{{orderTotal}}</strong></p>
<p>Deliver to: {{deliveryAddress}}</p>
</body></html>`,
			variables: []string{
				"restaurantName", "customerName", "customerPhone", "orderNumber",
				"orderTime", "orderItems", "orderTotal", "deliveryAddress", "currentYear",
			},
			description: "Sent to staff addresses after checkout",
		},
	}

	const insertTemplate = `
		INSERT INTO email_templates (id, name, subject, html_content, variables, description, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (id) DO NOTHING`

	for _, t := range templates {
		if _, err := pool.Exec(ctx, insertTemplate,
			t.id, t.name, t.subject, t.htmlContent, t.variables, t.description,
		); err != nil {
			return errors.Wrapf(err, "insert template %s", t.id)
		}

		slog.Info("seeded template", slog.String("id", t.id))
	}

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, password string) error {
	slog.Info("seeding admin user")

	hash, err := user.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	const insertAdmin = `
		INSERT INTO users (username, password_hash, email, full_name, role, permissions, is_active)
		VALUES ('admin', $1, 'admin@karuwa.com', 'Administrator', 'admin', '{all}', TRUE)
		ON CONFLICT (username) DO NOTHING`

	tag, err := pool.Exec(ctx, insertAdmin, hash)
	if err != nil {
		return errors.Wrap(err, "insert admin user")
	}
	if tag.RowsAffected() == 0 {
		slog.Info("admin user already exists, password unchanged")
		return nil
	}

	slog.Info("seeded admin user", slog.String("username", "admin"))
	return nil
}
