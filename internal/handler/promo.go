package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/pricing"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
)

type validatePromoRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type validatePromoResponse struct {
	Valid    bool            `json:"valid"`
	PromoID  int64           `json:"promoId"`
	Discount decimal.Decimal `json:"discount"`
}

// ValidatePromo checks a code against the cart subtotal. Advisory only: the
// checkout re-validates server-side and the usage counter is untouched here.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	v, err := h.promos.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		switch {
		case errors.Is(err, promo.ErrNotFound):
			writeError(w, http.StatusNotFound, "invalid promo code")
		case errors.Is(err, promo.ErrExpired):
			writeError(w, http.StatusUnprocessableEntity, "promo code has expired")
		case errors.Is(err, promo.ErrBelowMinimum):
			writeError(w, http.StatusUnprocessableEntity, "order total below promo minimum")
		default:
			h.writeDomainError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, validatePromoResponse{
		Valid:    true,
		PromoID:  v.PromoID,
		Discount: v.Discount,
	})
}

type promoView struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrder      decimal.Decimal `json:"minOrder"`
	MaxUses       *int            `json:"maxUses"`
	Uses          int             `json:"uses"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type promoRequest struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrder      decimal.Decimal `json:"minOrder"`
	MaxUses       *int            `json:"maxUses"`
	Active        bool            `json:"active"`
}

// ListPromos returns every code record for the admin view.
func (h *Handler) ListPromos(w http.ResponseWriter, r *http.Request) {
	codes, err := h.promos.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	views := make([]promoView, len(codes))
	for i, c := range codes {
		views[i] = viewPromo(&c)
	}
	writeJSON(w, http.StatusOK, views)
}

// CreatePromo stores a new code.
func (h *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, ok := promoFromRequest(w, &req)
	if !ok {
		return
	}

	id, err := h.promos.Create(r.Context(), c)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c.ID = id

	writeJSON(w, http.StatusCreated, viewPromo(c))
}

// UpdatePromo rewrites an existing code record.
func (h *Handler) UpdatePromo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid promo id")
		return
	}

	var req promoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, ok := promoFromRequest(w, &req)
	if !ok {
		return
	}
	c.ID = id

	if err := h.promos.Update(r.Context(), c); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewPromo(c))
}

// DeletePromo removes a code record.
func (h *Handler) DeletePromo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid promo id")
		return
	}

	if err := h.promos.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "promo code deleted"})
}

func promoFromRequest(w http.ResponseWriter, req *promoRequest) (*promo.Code, bool) {
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return nil, false
	}
	typ := pricing.DiscountType(req.DiscountType)
	if typ != pricing.DiscountPercentage && typ != pricing.DiscountFixed {
		writeError(w, http.StatusBadRequest, "discountType must be percentage or fixed")
		return nil, false
	}
	if req.DiscountValue.IsNegative() {
		writeError(w, http.StatusBadRequest, "discountValue must not be negative")
		return nil, false
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		writeError(w, http.StatusBadRequest, "maxUses must be greater than 0")
		return nil, false
	}
	return &promo.Code{
		Code:          req.Code,
		DiscountType:  typ,
		DiscountValue: req.DiscountValue,
		MinOrder:      req.MinOrder,
		MaxUses:       req.MaxUses,
		Active:        req.Active,
	}, true
}

func viewPromo(c *promo.Code) promoView {
	return promoView{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		MinOrder:      c.MinOrder,
		MaxUses:       c.MaxUses,
		Uses:          c.Uses,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
	}
}
