// Package handler exposes the HTTP API: the public storefront endpoints and
// the JWT-guarded admin surface. Handlers decode, delegate to the domain
// services, and map domain errors onto the error envelope.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/karuwa-takeaway/internal/domain/menu"
	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
	"github.com/xenking/karuwa-takeaway/internal/domain/order"
	"github.com/xenking/karuwa-takeaway/internal/domain/promo"
	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
	"github.com/xenking/karuwa-takeaway/internal/domain/user"
	"github.com/xenking/karuwa-takeaway/internal/smtp"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// UploadDir is where uploaded images are stored and served from.
	UploadDir string
	// MaxUploadBytes bounds a single uploaded file. Zero means the default.
	MaxUploadBytes int64
}

// Handler carries the domain dependencies for every route.
type Handler struct {
	menu      menu.Repository
	promos    *promo.Ledger
	orders    *order.Service
	site      settings.Repository
	templates notify.TemplateRepository
	users     user.Repository
	auth      *user.Auth
	mailer    smtp.Sender

	uploadDir      string
	maxUploadBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	menuRepo menu.Repository,
	promos *promo.Ledger,
	orders *order.Service,
	site settings.Repository,
	templates notify.TemplateRepository,
	users user.Repository,
	auth *user.Auth,
	mailer smtp.Sender,
) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	return &Handler{
		menu:           menuRepo,
		promos:         promos,
		orders:         orders,
		site:           site,
		templates:      templates,
		users:          users,
		auth:           auth,
		mailer:         mailer,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// errorEnvelope is the error body shape shared by every endpoint.
type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: message})
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// writeDomainError maps a domain error onto a status code. Unknown errors are
// logged and come back as an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missingField *order.MissingFieldError
		badQuantity  *order.InvalidQuantityError
		unknownItem  *order.ItemNotFoundError
		badMove      *order.InvalidTransitionError
		badAccount   *user.InvalidAccountError
	)

	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.As(err, &missingField),
		errors.As(err, &badQuantity),
		errors.As(err, &badAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unknownItem):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &badMove):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, menu.ErrItemNotFound),
		errors.Is(err, promo.ErrNotFound),
		errors.Is(err, notify.ErrTemplateNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrBelowMinimum):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, promo.ErrDuplicateCode),
		errors.Is(err, user.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, user.ErrProtected):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		zctx.From(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
