package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/karuwa-takeaway/internal/domain/menu"
	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/order"
	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
	"github.com/xenking/karuwa-takeaway/internal/domain/user"
	"github.com/xenking/karuwa-takeaway/internal/smtp"
)

// --- Mock implementations ---

type fakeMenuRepo struct {
	menu  *menu.Menu
	saved *menu.Menu
}

func (f *fakeMenuRepo) GetMenu(_ context.Context) (*menu.Menu, error) { return f.menu, nil }

func (f *fakeMenuRepo) GetItem(_ context.Context, id string) (*menu.Item, error) {
	for _, it := range f.menu.Items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, menu.ErrItemNotFound
}

func (f *fakeMenuRepo) GetItems(_ context.Context, ids []string) ([]menu.Item, error) {
	var out []menu.Item
	for _, id := range ids {
		for _, it := range f.menu.Items {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeMenuRepo) ReplaceAll(_ context.Context, m *menu.Menu) error {
	f.saved = m
	f.menu = m
	return nil
}

type fakePromoRepo struct {
	codes  map[int64]*promo.Code
	nextID int64
}

func (f *fakePromoRepo) FindByCode(_ context.Context, code string) (*promo.Code, error) {
	for _, c := range f.codes {
		if strings.EqualFold(c.Code, code) && c.Active {
			return c, nil
		}
	}
	return nil, promo.ErrNotFound
}

func (f *fakePromoRepo) FindByID(_ context.Context, id int64) (*promo.Code, error) {
	c, ok := f.codes[id]
	if !ok {
		return nil, promo.ErrNotFound
	}
	return c, nil
}

func (f *fakePromoRepo) List(_ context.Context) ([]promo.Code, error) {
	out := make([]promo.Code, 0, len(f.codes))
	for _, c := range f.codes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakePromoRepo) Create(_ context.Context, c *promo.Code) (int64, error) {
	for _, have := range f.codes {
		if strings.EqualFold(have.Code, c.Code) {
			return 0, promo.ErrDuplicateCode
		}
	}
	f.nextID++
	cp := *c
	cp.ID = f.nextID
	f.codes[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakePromoRepo) Update(_ context.Context, c *promo.Code) error {
	if _, ok := f.codes[c.ID]; !ok {
		return promo.ErrNotFound
	}
	f.codes[c.ID] = c
	return nil
}

func (f *fakePromoRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.codes[id]; !ok {
		return promo.ErrNotFound
	}
	delete(f.codes, id)
	return nil
}

func (f *fakePromoRepo) IncrementUses(_ context.Context, id int64) error {
	if c, ok := f.codes[id]; ok {
		c.Uses++
	}
	return nil
}

type fakeOrderRepo struct {
	orders map[string]*order.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) List(_ context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, expected, next order.Status) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.Status != expected {
		return false, nil
	}
	o.Status = next
	return true, nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(f.orders))
	f.orders = make(map[string]*order.Order)
	return n, nil
}

type fakeSettingsRepo struct {
	site  *settings.Site
	email *settings.Email
}

func (f *fakeSettingsRepo) GetSite(_ context.Context) (*settings.Site, error) { return f.site, nil }

func (f *fakeSettingsRepo) UpdateSite(_ context.Context, s *settings.Site) error {
	f.site = s
	return nil
}

func (f *fakeSettingsRepo) GetEmailSettings(_ context.Context) (*settings.Email, error) {
	return f.email, nil
}

func (f *fakeSettingsRepo) UpdateEmailSettings(_ context.Context, e *settings.Email) error {
	f.email = e
	return nil
}

type fakeTemplateRepo struct {
	templates map[string]*notify.Template
}

func (f *fakeTemplateRepo) GetTemplate(_ context.Context, id string) (*notify.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, notify.ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTemplateRepo) ListTemplates(_ context.Context) ([]notify.Template, error) {
	out := make([]notify.Template, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTemplateRepo) UpdateTemplate(_ context.Context, t *notify.Template) error {
	if _, ok := f.templates[t.ID]; !ok {
		return notify.ErrTemplateNotFound
	}
	f.templates[t.ID] = t
	return nil
}

type fakeUserRepo struct {
	users  map[int64]*user.User
	nextID int64
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) (int64, error) {
	for _, have := range f.users {
		if have.Username == u.Username || have.Email == u.Email {
			return 0, user.ErrDuplicate
		}
	}
	f.nextID++
	cp := *u
	cp.ID = f.nextID
	f.users[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	have, ok := f.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = have.PasswordHash
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) RecordLogin(_ context.Context, id int64, at time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type noopSender struct {
	sent []smtp.Message
}

func (n *noopSender) Send(_ context.Context, _ *settings.Email, msg smtp.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

// --- Helpers ---

type testEnv struct {
	handler *Handler
	router  http.Handler
	menu    *fakeMenuRepo
	promos  *fakePromoRepo
	orders  *fakeOrderRepo
	users   *fakeUserRepo
	token   string
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	menuRepo := &fakeMenuRepo{menu: &menu.Menu{
		Categories: []menu.Category{{ID: "mains", Name: "Mains"}},
		Items: []menu.Item{
			{ID: "momo", CategoryID: "mains", Name: "Chicken Momo", Price: d("8.50")},
			{ID: "curry", CategoryID: "mains", Name: "Lamb Curry", Price: d("11.50")},
		},
	}}

	promoRepo := &fakePromoRepo{codes: map[int64]*promo.Code{
		1: {
			ID: 1, Code: "SAVE5",
			DiscountType:  pricing.DiscountFixed,
			DiscountValue: d("5"),
			MinOrder:      d("15"),
			Active:        true,
		},
	}, nextID: 1}
	ledger := promo.NewLedger(promoRepo)

	orderRepo := &fakeOrderRepo{orders: make(map[string]*order.Order)}

	settingsRepo := &fakeSettingsRepo{
		site:  settings.DefaultSite(),
		email: settings.DefaultEmail(),
	}

	templateRepo := &fakeTemplateRepo{templates: map[string]*notify.Template{
		notify.TemplateOrderConfirmation: {
			ID:          notify.TemplateOrderConfirmation,
			Name:        "Order Confirmation",
			Subject:     "Order Confirmed - {{restaurantName}}",
			HTMLContent: "<p>Thanks {{customerName}}</p>",
			Variables:   []string{"restaurantName", "customerName"},
			Active:      true,
		},
	}}

	hash, err := user.HashPassword("secret123")
	require.NoError(t, err)
	userRepo := &fakeUserRepo{users: map[int64]*user.User{
		1: {
			ID: 1, Username: "admin", PasswordHash: hash,
			Email: "admin@karuwa.com", FullName: "Administrator",
			Role:        user.RoleAdmin,
			Permissions: []user.Permission{user.PermAll},
			IsActive:    true,
		},
	}, nextID: 1}
	auth := user.NewAuth(userRepo, []byte("test-secret"), time.Hour)

	svc := order.NewService(menuRepo, ledger, orderRepo, notify.Discard{}, settingsRepo, zaptest.NewLogger(t))

	h := NewHandler(
		Config{UploadDir: t.TempDir()},
		menuRepo, ledger, svc, settingsRepo, templateRepo, userRepo, auth, &noopSender{},
	)

	_, token, err := auth.Login(context.Background(), "admin", "secret123")
	require.NoError(t, err)

	return &testEnv{
		handler: h,
		router:  h.Routes(),
		menu:    menuRepo,
		promos:  promoRepo,
		orders:  orderRepo,
		users:   userRepo,
		token:   token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Tests ---

func TestGetMenu(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/menu", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode[menuView](t, rec)
	require.Len(t, m.Categories, 1)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "Chicken Momo", m.Items[0].Name)
}

func TestValidatePromo(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "valid code",
			body:       map[string]any{"code": "save5", "subtotal": "20.00"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown code",
			body:       map[string]any{"code": "BOGUS", "subtotal": "20.00"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "below minimum",
			body:       map[string]any{"code": "SAVE5", "subtotal": "10.00"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing code",
			body:       map[string]any{"subtotal": "20.00"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/validate-promo", tt.body, false)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				resp := decode[validatePromoResponse](t, rec)
				assert.True(t, resp.Valid)
				assert.Equal(t, int64(1), resp.PromoID)
				assert.True(t, d("5.00").Equal(resp.Discount))
			}
		})
	}
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"items": []map[string]any{
			{"menuItemId": "momo", "quantity": 2},
			{"menuItemId": "curry", "quantity": 1},
		},
		"customer": map[string]any{
			"name":    "Asha Gurung",
			"phone":   "07700900123",
			"address": "42 Hill Road, London",
		},
	}

	rec := env.do(t, http.MethodPost, "/api/orders", body, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	o := decode[orderView](t, rec)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "pending", o.Status)
	assert.True(t, d("28.50").Equal(o.Total))
	require.Len(t, env.orders.orders, 1)
}

func TestCreateOrder_WithPromo(t *testing.T) {
	env := newTestEnv(t)

	promoID := int64(1)
	body := map[string]any{
		"items": []map[string]any{
			{"menuItemId": "momo", "quantity": 2},
			{"menuItemId": "curry", "quantity": 1},
		},
		"customer": map[string]any{
			"name":    "Asha Gurung",
			"phone":   "07700900123",
			"address": "42 Hill Road, London",
		},
		"promoId": promoID,
	}

	rec := env.do(t, http.MethodPost, "/api/orders", body, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	o := decode[orderView](t, rec)
	assert.True(t, d("5.00").Equal(o.Discount))
	assert.True(t, d("23.50").Equal(o.Total))
	assert.Equal(t, 1, env.promos.codes[1].Uses)
}

// A customer who saved a promoId keeps none of the discount once the code is
// switched off: checkout re-validates by id against the current record.
func TestCreateOrder_DeactivatedPromoRejected(t *testing.T) {
	env := newTestEnv(t)
	env.promos.codes[1].Active = false

	body := map[string]any{
		"items": []map[string]any{
			{"menuItemId": "momo", "quantity": 2},
			{"menuItemId": "curry", "quantity": 1},
		},
		"customer": map[string]any{
			"name":    "Asha Gurung",
			"phone":   "07700900123",
			"address": "42 Hill Road, London",
		},
		"promoId": int64(1),
	}

	rec := env.do(t, http.MethodPost, "/api/orders", body, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, 0, env.promos.codes[1].Uses)
	assert.Empty(t, env.orders.orders)
}

func TestCreateOrder_Validation(t *testing.T) {
	customer := map[string]any{
		"name": "Asha", "phone": "07700900123", "address": "42 Hill Road",
	}

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "empty cart",
			body:       map[string]any{"items": []map[string]any{}, "customer": customer},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing customer name",
			body: map[string]any{
				"items":    []map[string]any{{"menuItemId": "momo", "quantity": 1}},
				"customer": map[string]any{"phone": "077", "address": "addr"},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown item",
			body: map[string]any{
				"items":    []map[string]any{{"menuItemId": "pizza", "quantity": 1}},
				"customer": customer,
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "zero quantity",
			body: map[string]any{
				"items":    []map[string]any{{"menuItemId": "momo", "quantity": 0}},
				"customer": customer,
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown promo",
			body: map[string]any{
				"items":    []map[string]any{{"menuItemId": "momo", "quantity": 2}},
				"customer": customer,
				"promoId":  99,
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/orders", tt.body, false)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestOrderStatusFlow(t *testing.T) {
	env := newTestEnv(t)
	env.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending}

	rec := env.do(t, http.MethodPut, "/api/orders/o1", map[string]string{"status": "preparing"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "preparing", decode[orderView](t, rec).Status)

	// Skipping ahead is rejected.
	rec = env.do(t, http.MethodPut, "/api/orders/o1", map[string]string{"status": "delivered"}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown order.
	rec = env.do(t, http.MethodPut, "/api/orders/missing", map[string]string{"status": "preparing"}, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/orders"},
		{http.MethodPut, "/api/orders/o1"},
		{http.MethodDelete, "/api/orders/o1"},
		{http.MethodDelete, "/api/orders"},
		{http.MethodPut, "/api/menu"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/promo-codes"},
	} {
		rec := env.do(t, tc.method, tc.path, nil, false)
		assert.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/login",
		map[string]string{"username": "admin", "password": "secret123"}, false)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[loginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Username)

	rec = env.do(t, http.MethodPost, "/api/login",
		map[string]string{"username": "admin", "password": "wrong"}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPromoCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/promo-codes", map[string]any{
		"code":          "welcome10",
		"discountType":  "percentage",
		"discountValue": "10",
		"minOrder":      "15",
		"active":        true,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[promoView](t, rec)
	assert.Equal(t, "WELCOME10", created.Code)

	// Duplicate, case-insensitively.
	rec = env.do(t, http.MethodPost, "/api/admin/promo-codes", map[string]any{
		"code":          "Save5",
		"discountType":  "fixed",
		"discountValue": "5",
		"active":        true,
	}, true)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Bad discount type.
	rec = env.do(t, http.MethodPost, "/api/admin/promo-codes", map[string]any{
		"code":          "WEIRD",
		"discountType":  "half-off",
		"discountValue": "5",
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/promo-codes", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]promoView](t, rec), 2)

	rec = env.do(t, http.MethodDelete, "/api/admin/promo-codes/1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/promo-codes/99", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveMenu(t *testing.T) {
	env := newTestEnv(t)

	body := menuView{
		Categories: []categoryView{{ID: "starters", Name: "Starters"}},
		Items: []menuItemView{{
			ID: "pakora", CategoryID: "starters", Name: "Veg Pakora", Price: d("4.50"),
		}},
	}

	rec := env.do(t, http.MethodPut, "/api/menu", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, env.menu.saved)
	require.Len(t, env.menu.saved.Items, 1)
	assert.Equal(t, "pakora", env.menu.saved.Items[0].ID)

	// Invalid spice level.
	body.Items[0].SpiceLevel = 9
	rec = env.do(t, http.MethodPut, "/api/menu", body, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/users", map[string]any{
		"username":    "asha",
		"password":    "hunter22",
		"email":       "asha@karuwa.com",
		"fullName":    "Asha Gurung",
		"role":        "staff",
		"permissions": []string{"orders", "menu"},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[userView](t, rec)
	assert.Equal(t, "asha", created.Username)

	// Password hashes never appear in responses.
	assert.NotContains(t, rec.Body.String(), "password")

	// Unknown permission rejected.
	rec = env.do(t, http.MethodPost, "/api/admin/users", map[string]any{
		"username": "bob", "password": "pw", "email": "bob@karuwa.com",
		"fullName": "Bob", "permissions": []string{"superuser"},
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Seeded admin cannot be deleted.
	rec = env.do(t, http.MethodDelete, "/api/admin/users/1", nil, true)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/users/"+itoa(created.ID), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/change-password", map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "newpass123",
	}, true)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/change-password", map[string]string{
		"currentPassword": "secret123",
		"newPassword":     "newpass123",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old password no longer works.
	rec = env.do(t, http.MethodPost, "/api/login",
		map[string]string{"username": "admin", "password": "secret123"}, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/login",
		map[string]string{"username": "admin", "password": "newpass123"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplatePreview(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/email-templates/order_confirmation/preview", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[previewResponse](t, rec)
	assert.Equal(t, "Order Confirmed - Karuwa Takeaway", resp.Subject)
	assert.Contains(t, resp.HTML, "Asha Gurung")

	rec = env.do(t, http.MethodPost, "/api/admin/email-templates/missing/preview", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmailSettings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/email-settings", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "smtpPassword")

	rec = env.do(t, http.MethodPut, "/api/admin/email-settings", map[string]any{
		"smtpHost":           "smtp.example.com",
		"smtpPort":           587,
		"smtpUser":           "mailer",
		"restaurantName":     "Karuwa Takeaway",
		"restaurantEmail":    "restaurant@karuwa.com",
		"staffEmails":        []string{"kitchen@karuwa.com"},
		"sendCustomerEmails": true,
		"sendStaffEmails":    false,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[emailSettingsView](t, rec)
	assert.Equal(t, "smtp.example.com", resp.SMTPHost)
	assert.False(t, resp.SendStaffEmails)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
