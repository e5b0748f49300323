// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts group endpoints (under "/groups" from bootstrap).
// Membership and role checks happen in the handlers against the
// membership rows, not here: the router cannot know which group a
// request touches until the URL is parsed.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.ServeCreate)
		pr.Get("/", h.ServeListMine)
		pr.Get("/{groupID}", h.ServeGet)
		pr.Get("/{groupID}/members", h.ServeMembers)
		pr.Put("/{groupID}/members/{userID}/role", h.ServeSetRole)
		pr.Post("/{groupID}/invites", h.ServeCreateInvite)
		pr.Get("/{groupID}/invites", h.ServeListInvites)
	})

	return r
}

// InviteRoutes mounts invite redemption (under "/invites" from
// bootstrap); redemption is keyed by code, not group.
func InviteRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/{code}/accept", h.ServeAcceptInvite)
	})

	return r
}
