// internal/app/features/governance/elections.go
package governance

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	electionstore "github.com/kolohq/kolo/internal/app/store/elections"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type candidateView struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Nominated bool   `json:"nominated"`
	Votes     int64  `json:"votes"`
}

type electionView struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id"`
	Status     string          `json:"status"`
	Candidates []candidateView `json:"candidates"`
}

func toElectionView(e models.Election) electionView {
	cands := make([]candidateView, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		cands = append(cands, candidateView{
			UserID:    c.UserID.Hex(),
			Name:      c.Name,
			Nominated: c.Nominated,
			Votes:     c.Votes,
		})
	}
	return electionView{
		ID:         e.ID.Hex(),
		GroupID:    e.GroupID.Hex(),
		Status:     e.Status,
		Candidates: cands,
	}
}

// ServeOpenElection handles POST /groups/{groupID}/governance/elections.
// Group admins only. Every current member becomes an eligible candidate;
// nomination marks who actually stands.
func (h *Handler) ServeOpenElection(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "open election")
	defer cancel()

	canManage, err := h.Policy.CanManageGroup(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("manage check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canManage {
		httpjson.Error(w, http.StatusForbidden, "group admins only")
		return
	}

	members, err := groupstore.New(h.DB).Members(ctx, groupID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if len(members) < models.ElectionSeats {
		httpjson.Error(w, http.StatusConflict, "not enough members to hold an election")
		return
	}
	candidates := make([]models.ElectionCandidate, 0, len(members))
	for _, m := range members {
		candidates = append(candidates, models.ElectionCandidate{
			UserID: m.UserID,
			Name:   m.Name,
		})
	}

	e, err := electionstore.New(h.DB).Create(ctx, models.Election{
		GroupID:    groupID,
		Candidates: candidates,
		CreatedBy:  userID,
	})
	if err != nil {
		h.Log.Error("create election failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, groupID, userID, "opened a trustee election for "+h.groupName(ctx, groupID)); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, toElectionView(e))
}

// ServeListElections handles GET /groups/{groupID}/governance/elections.
func (h *Handler) ServeListElections(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list elections")
	defer cancel()

	isMember, err := h.Policy.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	items, err := electionstore.New(h.DB).ListByGroup(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list elections failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]electionView, 0, len(items))
	for _, e := range items {
		out = append(out, toElectionView(e))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// loadElectionForMember fetches the election and verifies the caller
// belongs to its group.
func (h *Handler) loadElectionForMember(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) (models.Election, bool) {
	electionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "electionID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid election id")
		return models.Election{}, false
	}

	ctx := r.Context()
	e, err := electionstore.New(h.DB).GetByID(ctx, electionID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "election not found")
		return models.Election{}, false
	}
	isMember, err := h.Policy.IsMember(ctx, e.GroupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return models.Election{}, false
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return models.Election{}, false
	}
	return e, true
}

// ServeGetElection handles GET /elections/{electionID}.
func (h *Handler) ServeGetElection(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	e, ok := h.loadElectionForMember(w, r, userID)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, toElectionView(e))
}

type nominateRequest struct {
	CandidateID string `json:"candidate_id"`
	Nominated   bool   `json:"nominated"`
}

// ServeNominate handles POST /elections/{electionID}/nominations:
// nominate a candidate (or withdraw a nomination) during the nomination
// phase. Any member may nominate any eligible candidate, including
// themselves.
func (h *Handler) ServeNominate(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req nominateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	candidateID, err := primitive.ObjectIDFromHex(req.CandidateID)
	if err != nil {
		httpjson.Unprocessable(w, "invalid candidate id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "nominate candidate")
	defer cancel()
	r = r.WithContext(ctx)

	e, ok := h.loadElectionForMember(w, r, userID)
	if !ok {
		return
	}

	err = electionstore.New(h.DB).SetNominated(ctx, e.ID, candidateID, req.Nominated)
	if errors.Is(err, electionstore.ErrWrongPhase) {
		httpjson.Error(w, http.StatusConflict, "election is not in the nomination phase")
		return
	}
	if errors.Is(err, electionstore.ErrNotCandidate) {
		httpjson.Error(w, http.StatusNotFound, "no such candidate")
		return
	}
	if err != nil {
		h.Log.Error("set nomination failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	verb := "nominated"
	if !req.Nominated {
		verb = "withdrew the nomination of"
	}
	if err := h.Audit.Governance(ctx, e.GroupID, userID, name+" "+verb+" a trustee candidate"); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"nominated": req.Nominated})
}

// ServeAdvanceElection handles POST /elections/{electionID}/advance:
// nomination to voting, or voting to closed. Group admins only. Closing
// seats the top two candidates as trustees; ties resolve by slate order.
func (h *Handler) ServeAdvanceElection(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "advance election")
	defer cancel()
	r = r.WithContext(ctx)

	e, ok := h.loadElectionForMember(w, r, userID)
	if !ok {
		return
	}
	canManage, err := h.Policy.CanManageGroup(ctx, e.GroupID, userID)
	if err != nil {
		h.Log.Error("manage check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canManage {
		httpjson.Error(w, http.StatusForbidden, "group admins only")
		return
	}

	store := electionstore.New(h.DB)
	switch e.Status {
	case models.ElectionNomination:
		nominated := 0
		for _, c := range e.Candidates {
			if c.Nominated {
				nominated++
			}
		}
		if nominated < models.ElectionSeats {
			httpjson.Error(w, http.StatusConflict, "at least two nominated candidates are required")
			return
		}
		if err := store.AdvancePhase(ctx, e.ID, models.ElectionNomination, models.ElectionVoting); err != nil {
			httpjson.Error(w, http.StatusConflict, "election is not in the nomination phase")
			return
		}
		if err := h.Audit.Governance(ctx, e.GroupID, userID, "opened voting in the trustee election"); err != nil {
			httpjson.ServerError(w)
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]string{"status": models.ElectionVoting})

	case models.ElectionVoting:
		if err := store.AdvancePhase(ctx, e.ID, models.ElectionVoting, models.ElectionClosed); err != nil {
			httpjson.Error(w, http.StatusConflict, "election is not in the voting phase")
			return
		}
		e, err = store.GetByID(ctx, e.ID)
		if err != nil {
			h.Log.Error("reload election failed", zap.Error(err))
			httpjson.ServerError(w)
			return
		}

		winners := electionstore.Winners(e)
		groups := groupstore.New(h.DB)
		for _, c := range winners {
			if err := groups.SetMemberRole(ctx, e.GroupID, c.UserID, models.GroupRoleTrustee); err != nil {
				h.Log.Error("seat trustee failed",
					zap.String("user_id", c.UserID.Hex()), zap.Error(err))
				httpjson.ServerError(w)
				return
			}
			if err := h.Audit.Governance(ctx, e.GroupID, userID, c.Name+" was elected trustee"); err != nil {
				httpjson.ServerError(w)
				return
			}
			if nErr := h.Notify.Send(ctx, c.UserID, models.NotifyGovernance, "You were elected trustee", "You are now a trustee of "+h.groupName(ctx, e.GroupID)+"."); nErr != nil {
				h.Log.Warn("notify trustee failed", zap.Error(nErr))
			}
		}
		httpjson.Write(w, http.StatusOK, toElectionView(e))

	default:
		httpjson.Error(w, http.StatusConflict, "election is already closed")
	}
}

type ballotRequest struct {
	Choices []string `json:"choices"`
}

// ServeCastBallot handles POST /elections/{electionID}/ballots. Each
// member votes once, for at most two nominated candidates.
func (h *Handler) ServeCastBallot(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req ballotRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	choices := make([]primitive.ObjectID, 0, len(req.Choices))
	for _, c := range req.Choices {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			httpjson.Unprocessable(w, "invalid candidate id in choices")
			return
		}
		choices = append(choices, id)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "cast ballot")
	defer cancel()
	r = r.WithContext(ctx)

	e, ok := h.loadElectionForMember(w, r, userID)
	if !ok {
		return
	}

	_, err := electionstore.New(h.DB).SubmitBallot(ctx, e.ID, userID, choices)
	switch {
	case errors.Is(err, electionstore.ErrNoChoices):
		httpjson.Unprocessable(w, "a ballot needs at least one choice")
		return
	case errors.Is(err, electionstore.ErrTooManyChoices):
		httpjson.Unprocessable(w, "at most two candidates may be selected")
		return
	case errors.Is(err, electionstore.ErrWrongPhase):
		httpjson.Error(w, http.StatusConflict, "election is not in the voting phase")
		return
	case errors.Is(err, electionstore.ErrNotNominated):
		httpjson.Unprocessable(w, "all choices must be nominated candidates")
		return
	case errors.Is(err, electionstore.ErrAlreadyVoted):
		httpjson.Error(w, http.StatusConflict, "you have already voted in this election")
		return
	case err != nil:
		h.Log.Error("submit ballot failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, e.GroupID, userID, name+" voted in the trustee election"); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ballot_cast"})
}

// ServeElectionResults handles GET /elections/{electionID}/results: the
// ranked slate plus the winners once the election has closed.
func (h *Handler) ServeElectionResults(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	e, ok := h.loadElectionForMember(w, r, userID)
	if !ok {
		return
	}

	ranked := electionstore.Rank(e)
	rankedViews := make([]candidateView, 0, len(ranked))
	for _, c := range ranked {
		rankedViews = append(rankedViews, candidateView{
			UserID:    c.UserID.Hex(),
			Name:      c.Name,
			Nominated: c.Nominated,
			Votes:     c.Votes,
		})
	}

	resp := map[string]any{
		"status": e.Status,
		"ranked": rankedViews,
	}
	if e.Status == models.ElectionClosed {
		winners := electionstore.Winners(e)
		winnerViews := make([]candidateView, 0, len(winners))
		for _, c := range winners {
			winnerViews = append(winnerViews, candidateView{
				UserID: c.UserID.Hex(),
				Name:   c.Name,
				Votes:  c.Votes,
			})
		}
		resp["elected"] = winnerViews
	}
	httpjson.Write(w, http.StatusOK, resp)
}
