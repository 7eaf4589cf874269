package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/order"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
)

type orderItemReq struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type customerReq struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

type createOrderRequest struct {
	Items    []orderItemReq `json:"items"`
	Customer customerReq    `json:"customer"`
	PromoID  *int64         `json:"promoId"`
}

type orderItemView struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

type orderView struct {
	ID        string          `json:"id"`
	Customer  customerReq     `json:"customer"`
	Items     []orderItemView `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	PromoID   *int64          `json:"promoId,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// CreateOrder prices the cart, persists the order, and answers with the full
// priced order. Promo failures at this stage are unprocessable, whatever the
// earlier advisory validation said.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]order.CartLine, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CartLine{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		Items: items,
		Customer: order.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			Email:   req.Customer.Email,
		},
		PromoID: req.PromoID,
	})
	if err != nil {
		if errors.Is(err, promo.ErrNotFound) ||
			errors.Is(err, promo.ErrExpired) ||
			errors.Is(err, promo.ErrBelowMinimum) {
			writeError(w, http.StatusUnprocessableEntity, "invalid promo code")
			return
		}
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOrder(o))
}

// ListOrders returns all orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = viewOrder(&orders[i])
	}
	writeJSON(w, http.StatusOK, views)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order through the lifecycle state machine.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Transition(r.Context(), id, order.Status(req.Status))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewOrder(o))
}

// DeleteOrder removes one order.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// DeleteAllOrders removes every order.
func (h *Handler) DeleteAllOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.orders.DeleteAll(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func viewOrder(o *order.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
	}
	return orderView{
		ID: o.ID,
		Customer: customerReq{
			Name:    o.Customer.Name,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
			Email:   o.Customer.Email,
		},
		Items:     items,
		Subtotal:  o.Subtotal,
		Discount:  o.Discount,
		Total:     o.Total,
		PromoID:   o.PromoID,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}
