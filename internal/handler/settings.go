package handler

import (
	"net/http"

	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
	"github.com/xenking/karuwa-takeaway/internal/smtp"
)

// GetSiteSettings returns the storefront content record.
func (h *Handler) GetSiteSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.site.GetSite(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSiteSettings replaces the storefront content record.
func (h *Handler) UpdateSiteSettings(w http.ResponseWriter, r *http.Request) {
	var s settings.Site
	if err := readJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.site.UpdateSite(r.Context(), &s); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &s)
}

type emailSettingsView struct {
	SMTPHost           string   `json:"smtpHost"`
	SMTPPort           int      `json:"smtpPort"`
	SMTPUser           string   `json:"smtpUser"`
	SMTPPassword       string   `json:"smtpPassword,omitempty"`
	RestaurantName     string   `json:"restaurantName"`
	RestaurantEmail    string   `json:"restaurantEmail"`
	StaffEmails        []string `json:"staffEmails"`
	SendCustomerEmails bool     `json:"sendCustomerEmails"`
	SendStaffEmails    bool     `json:"sendStaffEmails"`
}

// GetEmailSettings returns the notification configuration. The SMTP password
// never leaves the server.
func (h *Handler) GetEmailSettings(w http.ResponseWriter, r *http.Request) {
	e, err := h.site.GetEmailSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	v := viewEmailSettings(e)
	v.SMTPPassword = ""
	writeJSON(w, http.StatusOK, v)
}

// UpdateEmailSettings replaces the notification configuration. An empty
// password in the request keeps the stored one.
func (h *Handler) UpdateEmailSettings(w http.ResponseWriter, r *http.Request) {
	var req emailSettingsView
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := &settings.Email{
		SMTPHost:           req.SMTPHost,
		SMTPPort:           req.SMTPPort,
		SMTPUser:           req.SMTPUser,
		SMTPPassword:       req.SMTPPassword,
		RestaurantName:     req.RestaurantName,
		RestaurantEmail:    req.RestaurantEmail,
		StaffEmails:        req.StaffEmails,
		SendCustomerEmails: req.SendCustomerEmails,
		SendStaffEmails:    req.SendStaffEmails,
	}
	if e.StaffEmails == nil {
		e.StaffEmails = []string{}
	}
	if e.SMTPPassword == "" {
		current, err := h.site.GetEmailSettings(r.Context())
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		e.SMTPPassword = current.SMTPPassword
	}

	if err := h.site.UpdateEmailSettings(r.Context(), e); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	v := viewEmailSettings(e)
	v.SMTPPassword = ""
	writeJSON(w, http.StatusOK, v)
}

type testEmailRequest struct {
	To string `json:"to"`
}

// SendTestEmail delivers a short test message so operators can verify SMTP
// credentials without placing an order.
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to address is required")
		return
	}

	cfg, err := h.site.GetEmailSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	err = h.mailer.Send(r.Context(), cfg, smtp.Message{
		To:      req.To,
		Subject: "Test email from " + cfg.RestaurantName,
		HTML:    "<p>Email sending is configured correctly.</p>",
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "sending test email: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "test email sent"})
}

func viewEmailSettings(e *settings.Email) emailSettingsView {
	staff := e.StaffEmails
	if staff == nil {
		staff = []string{}
	}
	return emailSettingsView{
		SMTPHost:           e.SMTPHost,
		SMTPPort:           e.SMTPPort,
		SMTPUser:           e.SMTPUser,
		SMTPPassword:       e.SMTPPassword,
		RestaurantName:     e.RestaurantName,
		RestaurantEmail:    e.RestaurantEmail,
		StaffEmails:        staff,
		SendCustomerEmails: e.SendCustomerEmails,
		SendStaffEmails:    e.SendStaffEmails,
	}
}
