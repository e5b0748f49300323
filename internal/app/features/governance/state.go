// internal/app/features/governance/state.go
package governance

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	disbursementstore "github.com/kolohq/kolo/internal/app/store/disbursements"
	electionstore "github.com/kolohq/kolo/internal/app/store/elections"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	pollstore "github.com/kolohq/kolo/internal/app/store/polls"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const statePreview = 5

type stateMemberView struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// stateView is the governance dashboard aggregate: the member roster,
// recent disbursements and polls, the latest audit entries, and the
// running election if there is one.
type stateView struct {
	Quorum        int                `json:"quorum"`
	CanDecide     bool               `json:"can_decide"`
	Members       []stateMemberView  `json:"members"`
	Disbursements []disbursementView `json:"disbursements"`
	Polls         []pollView         `json:"polls"`
	AuditLogs     []auditView        `json:"audit_logs"`
	Election      *electionView      `json:"election,omitempty"`
}

// ServeState handles GET /groups/{groupID}/governance: one aggregate for
// the group's governance dashboard so the client makes a single request.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "governance state")
	defer cancel()

	member, err := h.Policy.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !member {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	canDecide, err := h.Policy.CanDecideDisbursements(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("trustee check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	quorum, err := h.Policy.TrusteeQuorum(ctx, groupID)
	if err != nil {
		h.Log.Error("quorum lookup failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	disbursements, err := disbursementstore.New(h.DB).ListByGroup(ctx, groupID, statePreview, 0)
	if err != nil {
		h.Log.Error("list disbursements failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	dViews := make([]disbursementView, 0, len(disbursements))
	for _, d := range disbursements {
		dViews = append(dViews, h.disbursementView(ctx, d))
	}

	polls, err := pollstore.New(h.DB).ListByGroup(ctx, groupID, statePreview, 0)
	if err != nil {
		h.Log.Error("list polls failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	pViews := make([]pollView, 0, len(polls))
	for _, p := range polls {
		pViews = append(pViews, toPollView(p))
	}

	members, err := groupstore.New(h.DB).Members(ctx, groupID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	mViews := make([]stateMemberView, 0, len(members))
	for _, m := range members {
		mViews = append(mViews, stateMemberView{
			UserID: m.UserID.Hex(),
			Name:   m.Name,
			Role:   m.Role,
		})
	}

	entries, err := h.Audit.Trail(ctx, groupID, statePreview, 0)
	if err != nil {
		h.Log.Error("list audit entries failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	aViews := make([]auditView, 0, len(entries))
	for _, e := range entries {
		aViews = append(aViews, auditView{
			Activity:  e.Activity,
			UserID:    e.UserID.Hex(),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	resp := stateView{
		Quorum:        quorum,
		CanDecide:     canDecide,
		Members:       mViews,
		Disbursements: dViews,
		Polls:         pViews,
		AuditLogs:     aViews,
	}

	latest, err := electionstore.New(h.DB).Latest(ctx, groupID)
	if err == nil {
		v := toElectionView(latest)
		resp.Election = &v
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Error("load latest election failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	httpjson.Write(w, http.StatusOK, resp)
}

type auditView struct {
	Activity  string `json:"activity"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// ServeAuditTrail handles GET /groups/{groupID}/governance/audit: the
// group's append-only record, newest first. Members only.
func (h *Handler) ServeAuditTrail(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit trail")
	defer cancel()

	member, err := h.Policy.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !member {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	entries, err := h.Audit.Trail(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list audit entries failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]auditView, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditView{
			Activity:  e.Activity,
			UserID:    e.UserID.Hex(),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}
