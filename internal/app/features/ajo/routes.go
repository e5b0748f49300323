// internal/app/features/ajo/routes.go
package ajo

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts ajo endpoints (under "/ajo" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.ServeCreate)
		pr.Get("/", h.ServeListOpen)
		pr.Get("/mine", h.ServeListMine)
		pr.Get("/{groupID}", h.ServeGet)
		pr.Post("/{groupID}/join", h.ServeJoin)
		pr.Post("/{groupID}/contribute", h.ServeContribute)
		pr.Post("/{groupID}/activate", h.ServeActivate)
	})

	return r
}
