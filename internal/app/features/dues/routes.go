// internal/app/features/dues/routes.go
package dues

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// GroupRoutes mounts the group-scoped dues endpoints (mounted at
// "/groups/{groupID}/dues" from bootstrap; the groupID URL param comes
// from the parent route).
func GroupRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.ServeCreate)
		pr.Get("/", h.ServeList)
	})

	return r
}

// Routes mounts the due-scoped endpoints (under "/dues" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/{dueID}/pay", h.ServePay)
		pr.Get("/{dueID}/payments", h.ServePayments)
	})

	return r
}
