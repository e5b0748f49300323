// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts notification endpoints (under "/notifications" from
// bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/{notificationID}/read", h.ServeMarkRead)
		pr.Post("/read-all", h.ServeMarkAllRead)
	})

	return r
}
