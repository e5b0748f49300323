// internal/app/features/wallets/routes.go
package wallets

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts wallet endpoints (under "/wallet" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeGet)
		pr.Post("/fund", h.ServeFund)
	})

	return r
}
