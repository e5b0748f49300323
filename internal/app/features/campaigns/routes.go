// internal/app/features/campaigns/routes.go
package campaigns

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts campaign endpoints (under "/campaigns" from bootstrap).
// Browsing is public; everything else needs a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{campaignID}", h.ServeGet)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.ServeCreate)
		pr.Post("/{campaignID}/contribute", h.ServeContribute)
		pr.Post("/{campaignID}/close", h.ServeClose)
	})

	return r
}
