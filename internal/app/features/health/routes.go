package health

import "github.com/go-chi/chi/v5"

// Routes mounts the health endpoint (no auth; load balancers hit this).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
