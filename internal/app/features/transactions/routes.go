// internal/app/features/transactions/routes.go
package transactions

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts transaction endpoints (under "/transactions" from
// bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/stream", h.ServeStream)
	})

	return r
}
