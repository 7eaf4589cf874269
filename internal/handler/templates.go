package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/karuwa-takeaway/internal/domain/notify"
)

type templateView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	Variables   []string  `json:"variables"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListTemplates returns all email templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ListTemplates(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	views := make([]templateView, len(templates))
	for i, t := range templates {
		views[i] = viewTemplate(&t)
	}
	writeJSON(w, http.StatusOK, views)
}

// GetTemplate returns one email template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.templates.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTemplate(t))
}

type updateTemplateRequest struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// UpdateTemplate rewrites the editable fields of a template. The declared
// variable list is fixed per template and cannot be changed over the API.
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTemplateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Subject == "" || req.HTMLContent == "" {
		writeError(w, http.StatusBadRequest, "subject and htmlContent are required")
		return
	}

	t, err := h.templates.GetTemplate(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	t.Name = req.Name
	t.Subject = req.Subject
	t.HTMLContent = req.HTMLContent
	t.Description = req.Description
	t.Active = req.Active

	if err := h.templates.UpdateTemplate(r.Context(), t); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewTemplate(t))
}

type previewResponse struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// PreviewTemplate renders a template with sample order data so operators can
// check their edits without sending anything.
func (h *Handler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.templates.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	subject, body := notify.RenderTemplate(t, sampleVars())
	writeJSON(w, http.StatusOK, previewResponse{Subject: subject, HTML: body})
}

func sampleVars() map[string]string {
	now := time.Now()
	info := notify.OrderInfo{
		ID:       "sample-0042",
		Customer: "Asha Gurung",
		Phone:    "07700 900123",
		Address:  "42 Hill Road, London",
		Lines: []notify.OrderLine{
			{Name: "Chicken Momo", Price: decimal.RequireFromString("8.50"), Quantity: 2},
			{Name: "Lamb Curry", Price: decimal.RequireFromString("11.50"), Quantity: 1},
		},
		Total:     decimal.RequireFromString("28.50"),
		Status:    "preparing",
		CreatedAt: now,
	}

	vars := notify.ConfirmationVars("Karuwa Takeaway", info)
	for k, v := range notify.StatusVars("Karuwa Takeaway", info) {
		vars[k] = v
	}
	return vars
}

func viewTemplate(t *notify.Template) templateView {
	vars := t.Variables
	if vars == nil {
		vars = []string{}
	}
	return templateView{
		ID:          t.ID,
		Name:        t.Name,
		Subject:     t.Subject,
		HTMLContent: t.HTMLContent,
		Variables:   vars,
		Description: t.Description,
		Active:      t.Active,
		UpdatedAt:   t.UpdatedAt,
	}
}
