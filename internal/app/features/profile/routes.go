// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts profile endpoints (under "/profile" from bootstrap).
// KYC review is platform-admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeGet)
		pr.Put("/", h.ServeUpdate)
		pr.Post("/kyc", h.ServeSubmitKYC)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/kyc/pending", h.ServePendingKYC)
		ar.Post("/kyc/{userID}/decision", h.ServeDecideKYC)
	})

	return r
}
