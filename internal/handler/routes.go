package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes assembles the API router. Everything under /api/admin and every
// order mutation requires a valid session token; the storefront endpoints
// stay public.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public storefront surface.
	r.Get("/api/menu", h.GetMenu)
	r.Get("/api/settings", h.GetSiteSettings)
	r.Post("/api/orders", h.CreateOrder)
	r.Post("/api/validate-promo", h.ValidatePromo)
	r.Post("/api/login", h.Login)

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/orders", h.ListOrders)
		r.Put("/api/orders/{id}", h.UpdateOrderStatus)
		r.Delete("/api/orders/{id}", h.DeleteOrder)
		r.Delete("/api/orders", h.DeleteAllOrders)

		r.Put("/api/menu", h.SaveMenu)
		r.Put("/api/settings", h.UpdateSiteSettings)

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/email-settings", h.GetEmailSettings)
			r.Put("/email-settings", h.UpdateEmailSettings)
			r.Post("/email-settings/test", h.SendTestEmail)

			r.Get("/email-templates", h.ListTemplates)
			r.Get("/email-templates/{id}", h.GetTemplate)
			r.Put("/email-templates/{id}", h.UpdateTemplate)
			r.Post("/email-templates/{id}/preview", h.PreviewTemplate)

			r.Get("/promo-codes", h.ListPromos)
			r.Post("/promo-codes", h.CreatePromo)
			r.Put("/promo-codes/{id}", h.UpdatePromo)
			r.Delete("/promo-codes/{id}", h.DeletePromo)

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)

			r.Post("/change-password", h.ChangePassword)
			r.Post("/upload", h.UploadImage)
		})
	})

	// Uploaded images are served as-is.
	if h.uploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return r
}
