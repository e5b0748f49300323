// internal/app/features/governance/routes.go
package governance

import (
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/auth"
)

// GroupRoutes mounts the group-scoped governance endpoints (mounted at
// "/groups/{groupID}/governance" from bootstrap). Authorization beyond
// sign-in is per-handler: it depends on the caller's group role, which
// is read from the membership rows at the point of write.
func GroupRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeState)

		pr.Post("/disbursements", h.ServeCreateDisbursement)
		pr.Get("/disbursements", h.ServeListDisbursements)

		pr.Post("/polls", h.ServeCreatePoll)
		pr.Get("/polls", h.ServeListPolls)

		pr.Post("/elections", h.ServeOpenElection)
		pr.Get("/elections", h.ServeListElections)

		pr.Get("/audit", h.ServeAuditTrail)
	})

	return r
}

// DisbursementRoutes mounts decision endpoints (under "/disbursements").
func DisbursementRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/{disbursementID}", h.ServeGetDisbursement)
		pr.Post("/{disbursementID}/approve", h.ServeApprove)
		pr.Post("/{disbursementID}/reject", h.ServeReject)
	})

	return r
}

// PollRoutes mounts poll endpoints (under "/polls").
func PollRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/{pollID}", h.ServeGetPoll)
		pr.Post("/{pollID}/vote", h.ServeVote)
		pr.Post("/{pollID}/close", h.ServeClosePoll)
	})

	return r
}

// ElectionRoutes mounts election endpoints (under "/elections").
func ElectionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/{electionID}", h.ServeGetElection)
		pr.Post("/{electionID}/nominations", h.ServeNominate)
		pr.Post("/{electionID}/advance", h.ServeAdvanceElection)
		pr.Post("/{electionID}/ballots", h.ServeCastBallot)
		pr.Get("/{electionID}/results", h.ServeElectionResults)
	})

	return r
}
