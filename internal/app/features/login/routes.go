// internal/app/features/login/routes.go
package login

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// Routes mounts account endpoints (typically under "/auth" from
// bootstrap). Sign-up and sign-in are public; the rest require a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.ServeSignUp)
	r.Post("/signin", h.ServeSignIn)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/signout", h.ServeSignOut)
		pr.Get("/me", h.ServeMe)
	})

	return r
}
