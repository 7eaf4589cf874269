package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/karuwa-takeaway/internal/domain/menu"
	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
)

// Input validation errors.
var ErrEmptyCart = errors.New("cart items required")

// MissingFieldError indicates a required customer field was not provided.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("customer %s is required", e.Field)
}

// InvalidQuantityError indicates a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	MenuItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %s", e.MenuItemID)
}

// ItemNotFoundError indicates a cart line referencing an unknown menu item.
type ItemNotFoundError struct {
	MenuItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.MenuItemID)
}

// PromoLedger is the slice of the promo ledger the order flow needs: validate
// a code at checkout and record its usage after the order is durable.
type PromoLedger interface {
	ValidateByID(ctx context.Context, promoID int64, subtotal decimal.Decimal) (*promo.Validation, error)
	RecordUsage(ctx context.Context, promoID int64) error
}

// EmailSettingsSource yields the current notification configuration.
type EmailSettingsSource interface {
	GetEmailSettings(ctx context.Context) (*settings.Email, error)
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Items    []CartLine
	Customer Customer
	PromoID  *int64
}

// CartLine is one requested cart entry, by menu item id.
type CartLine struct {
	MenuItemID string
	Quantity   int
}

// Service drives order creation, status transitions, and deletion, firing
// best-effort notifications along the way.
type Service struct {
	menu     menu.Repository
	promos   PromoLedger
	orders   Repository
	notifier notify.Dispatcher
	email    EmailSettingsSource
	lg       *zap.Logger

	now   func() time.Time
	newID func(t time.Time) string
}

// NewService creates an order Service with the required dependencies.
func NewService(
	menuRepo menu.Repository,
	promos PromoLedger,
	orders Repository,
	notifier notify.Dispatcher,
	email EmailSettingsSource,
	lg *zap.Logger,
) *Service {
	return &Service{
		menu:     menuRepo,
		promos:   promos,
		orders:   orders,
		notifier: notifier,
		email:    email,
		lg:       lg,
		now:      time.Now,
		newID:    newOrderID,
	}
}

// newOrderID derives an order id from the creation time, with a short random
// suffix so concurrent checkouts in the same millisecond cannot collide.
func newOrderID(t time.Time) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), uuid.New().String()[:8])
}

// Create validates the cart, prices it against the current menu, persists the
// order as pending, records promo usage, and fires creation notifications.
// Notification and usage-accounting failures are logged, never returned.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{MenuItemID: line.MenuItemID}
		}
		ids[i] = line.MenuItemID
	}

	// Batch fetch all referenced menu items in a single query.
	fetched, err := s.menu.GetItems(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items")
	}
	byID := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	// Snapshot name, price, quantity per line. The order keeps these copies
	// forever, independent of later menu edits.
	items := make([]Item, len(req.Items))
	lines := make([]pricing.Line, len(req.Items))
	for i, line := range req.Items {
		it, ok := byID[line.MenuItemID]
		if !ok {
			return nil, &ItemNotFoundError{MenuItemID: line.MenuItemID}
		}
		items[i] = Item{
			MenuItemID: it.ID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   line.Quantity,
		}
		lines[i] = pricing.Line{Price: it.Price, Quantity: line.Quantity}
	}

	subtotal := pricing.Subtotal(lines)

	// Re-validate the promo server-side against the current subtotal; the
	// client-side validation result is advisory only.
	discount := decimal.Zero
	if req.PromoID != nil {
		v, err := s.promos.ValidateByID(ctx, *req.PromoID, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "validate promo")
		}
		discount = v.Discount
	}

	now := s.now()
	o := &Order{
		ID:        s.newID(now),
		Customer:  req.Customer,
		Items:     items,
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     pricing.Total(subtotal, discount),
		PromoID:   req.PromoID,
		Status:    StatusPending,
		CreatedAt: now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// The order is durable from here on: promo accounting and notifications
	// are best-effort and must not fail the placed order.
	if req.PromoID != nil {
		if err := s.promos.RecordUsage(ctx, *req.PromoID); err != nil {
			s.lg.Error("record promo usage",
				zap.String("order_id", o.ID),
				zap.Int64("promo_id", *req.PromoID),
				zap.Error(err),
			)
		}
	}

	s.dispatch(ctx, notify.EventOrderCreated, o)

	return o, nil
}

func validateCustomer(c Customer) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return &MissingFieldError{Field: "name"}
	case strings.TrimSpace(c.Phone) == "":
		return &MissingFieldError{Field: "phone"}
	case strings.TrimSpace(c.Address) == "":
		return &MissingFieldError{Field: "address"}
	}
	return nil
}

// Transition moves the order to next, enforcing the state machine with an
// optimistic conditional write: validate against the freshest read, write only
// if the persisted status is unchanged, retry once on a lost race, then fail
// with ErrConflict. The order never lands in an undefined state.
func (s *Service) Transition(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, &InvalidTransitionError{To: next}
	}

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if !o.Status.CanTransition(next) {
			return nil, &InvalidTransitionError{From: o.Status, To: next}
		}

		applied, err := s.orders.UpdateStatus(ctx, id, o.Status, next)
		if err != nil {
			return nil, errors.Wrap(err, "update order status")
		}
		if applied {
			break
		}
		if attempt > 0 {
			return nil, ErrConflict
		}

		// Lost the race: re-read and re-validate against the fresh status.
		o, err = s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	o.Status = next
	s.dispatch(ctx, notify.EventStatusChanged, o)
	return o, nil
}

// Delete removes a single order unconditionally. Admin override, not a
// lifecycle transition: active orders may be deleted too.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}

// DeleteAll removes every order and returns how many were deleted.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.orders.DeleteAll(ctx)
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// dispatch fans out a notification for the event in the background. The
// triggering operation has already succeeded; results are only logged.
func (s *Service) dispatch(ctx context.Context, kind notify.EventKind, o *Order) {
	es, err := s.email.GetEmailSettings(ctx)
	if err != nil {
		s.lg.Warn("load email settings, skipping notifications",
			zap.String("order_id", o.ID), zap.Error(err))
		return
	}

	var recipients []notify.Recipient
	if es.SendCustomerEmails && o.Customer.Email != "" {
		recipients = append(recipients, notify.Recipient{
			Email:    o.Customer.Email,
			Audience: notify.AudienceCustomer,
		})
	}
	if kind == notify.EventOrderCreated && es.SendStaffEmails {
		for _, addr := range es.StaffEmails {
			recipients = append(recipients, notify.Recipient{
				Email:    addr,
				Audience: notify.AudienceStaff,
			})
		}
	}
	if len(recipients) == 0 {
		return
	}

	info := notify.OrderInfo{
		ID:        o.ID,
		Customer:  o.Customer.Name,
		Phone:     o.Customer.Phone,
		Address:   o.Customer.Address,
		Lines:     orderLines(o.Items),
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}

	var vars map[string]string
	switch kind {
	case notify.EventStatusChanged:
		vars = notify.StatusVars(es.RestaurantName, info)
	default:
		vars = notify.ConfirmationVars(es.RestaurantName, info)
	}

	ev := notify.Event{
		Kind:       kind,
		OrderID:    o.ID,
		Vars:       vars,
		OccurredAt: s.now(),
	}

	// Fire and forget: the HTTP boundary answers as soon as the order is
	// durable, independent of delivery.
	lg := s.lg
	go func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		for _, res := range s.notifier.Notify(dctx, ev, recipients) {
			if res.Err != nil {
				lg.Error("notification delivery failed",
					zap.String("order_id", o.ID),
					zap.String("kind", string(kind)),
					zap.String("recipient", res.Recipient.Email),
					zap.Error(res.Err),
				)
			}
		}
	}()
}

func orderLines(items []Item) []notify.OrderLine {
	lines := make([]notify.OrderLine, len(items))
	for i, it := range items {
		lines[i] = notify.OrderLine{Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}
