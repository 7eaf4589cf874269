//go:build integration

package integration

import (
	"net/http"
	"strconv"
	"testing"
)

func TestValidatePromo_Unknown(t *testing.T) {
	resp := doPost(t, "/api/validate-promo", validatePromoRequest{Code: "NOPE1234", Subtotal: "30.00"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message != "invalid promo code" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestValidatePromo_BelowMinimum(t *testing.T) {
	// WELCOME10 requires a £15 subtotal.
	resp := doPost(t, "/api/validate-promo", validatePromoRequest{Code: "WELCOME10", Subtotal: "10.00"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestValidatePromo_CaseInsensitive(t *testing.T) {
	resp := doPost(t, "/api/validate-promo", validatePromoRequest{Code: "welcome10", Subtotal: "20.00"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := decodeJSON[validatePromoResponse](t, resp)
	if !v.Valid {
		t.Fatal("expected lowercase code to validate")
	}
}

type promoAdminRequest struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discountType"`
	DiscountValue string `json:"discountValue"`
	MinOrder      string `json:"minOrder"`
	MaxUses       *int   `json:"maxUses"`
	Active        bool   `json:"active"`
}

type promoAdminResponse struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	DiscountType  string `json:"discountType"`
	DiscountValue string `json:"discountValue"`
	Uses          int    `json:"uses"`
	Active        bool   `json:"active"`
}

func TestPromoAdmin_CRUD(t *testing.T) {
	create := promoAdminRequest{
		Code:          "ITESTCODE",
		DiscountType:  "fixed",
		DiscountValue: "3.00",
		MinOrder:      "0",
		Active:        true,
	}

	resp := doAuthed(t, http.MethodPost, "/api/admin/promo-codes", create)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[promoAdminResponse](t, resp)
	resp.Body.Close()

	// Duplicate in a different case is rejected.
	dup := create
	dup.Code = "itestcode"
	resp = doAuthed(t, http.MethodPost, "/api/admin/promo-codes", dup)
	if resp.StatusCode != http.StatusConflict {
		resp.Body.Close()
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deactivate it; validation must stop accepting it.
	update := create
	update.Active = false
	resp = doAuthed(t, http.MethodPut, "/api/admin/promo-codes/"+strconv.FormatInt(created.ID, 10), update)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	vResp := doPost(t, "/api/validate-promo", validatePromoRequest{Code: "ITESTCODE", Subtotal: "30.00"})
	if vResp.StatusCode != http.StatusNotFound {
		vResp.Body.Close()
		t.Fatalf("inactive code: expected 404, got %d", vResp.StatusCode)
	}
	vResp.Body.Close()

	resp = doAuthed(t, http.MethodDelete, "/api/admin/promo-codes/"+strconv.FormatInt(created.ID, 10), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
}

func TestPromoAdmin_RequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/admin/promo-codes")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
