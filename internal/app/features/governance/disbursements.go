// internal/app/features/governance/disbursements.go
package governance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	disbursementstore "github.com/kolohq/kolo/internal/app/store/disbursements"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/htmlsanitize"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/inputval"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type disbursementView struct {
	ID         string   `json:"id"`
	GroupID    string   `json:"group_id"`
	Title      string   `json:"title"`
	Amount     int64    `json:"amount"`
	Status     string   `json:"status"`
	Approvals  []string `json:"approvals"`
	Quorum     int      `json:"quorum"`
	RejectedBy string   `json:"rejected_by,omitempty"`
	CreatedBy  string   `json:"created_by"`
	CreatedAt  string   `json:"created_at"`
}

func (h *Handler) disbursementView(ctx context.Context, d models.Disbursement) disbursementView {
	quorum, err := h.Policy.TrusteeQuorum(ctx, d.GroupID)
	if err != nil {
		quorum = models.ApprovalQuorum(2)
	}
	approvals := make([]string, 0, len(d.Approvals))
	for _, a := range d.Approvals {
		approvals = append(approvals, a.Hex())
	}
	v := disbursementView{
		ID:        d.ID.Hex(),
		GroupID:   d.GroupID.Hex(),
		Title:     d.Title,
		Amount:    d.Amount,
		Status:    d.Status,
		Approvals: approvals,
		Quorum:    quorum,
		CreatedBy: d.CreatedBy.Hex(),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
	if d.RejectedBy != nil {
		v.RejectedBy = d.RejectedBy.Hex()
	}
	return v
}

type createDisbursementRequest struct {
	Title  string `json:"title"`
	Amount int64  `json:"amount"`
}

// ServeCreateDisbursement handles POST
// /groups/{groupID}/governance/disbursements. Any member may request;
// trustees decide.
func (h *Handler) ServeCreateDisbursement(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	var req createDisbursementRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.Title = htmlsanitize.Plain(req.Title)
	if err := inputval.Title(req.Title); err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}
	if err := inputval.Amount(req.Amount); err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create disbursement")
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

	d, err := disbursementstore.New(h.DB).Create(ctx, models.Disbursement{
		GroupID:   groupID,
		Title:     req.Title,
		Amount:    req.Amount,
		CreatedBy: userID,
	})
	if err != nil {
		h.Log.Error("create disbursement failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, groupID, userID, name+" requested disbursement \""+d.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, h.disbursementView(ctx, d))
}

// ServeListDisbursements handles GET
// /groups/{groupID}/governance/disbursements. Members only.
func (h *Handler) ServeListDisbursements(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list disbursements")
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

	items, err := disbursementstore.New(h.DB).ListByGroup(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list disbursements failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]disbursementView, 0, len(items))
	for _, d := range items {
		out = append(out, h.disbursementView(ctx, d))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeGetDisbursement handles GET /disbursements/{disbursementID}.
func (h *Handler) ServeGetDisbursement(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "disbursementID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid disbursement id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get disbursement")
	defer cancel()

	d, err := disbursementstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "disbursement not found")
		return
	}
	isMember, err := h.Policy.IsMember(ctx, d.GroupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}
	httpjson.Write(w, http.StatusOK, h.disbursementView(ctx, d))
}

type decisionRequest struct {
	Comment string `json:"comment"`
}

// decisionComment reads the optional comment from an approve/reject body.
// Deciding without a body is fine.
func decisionComment(w http.ResponseWriter, r *http.Request) (string, error) {
	var req decisionRequest
	err := httpjson.Decode(w, r, &req)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return htmlsanitize.Plain(req.Comment), nil
}

// ServeApprove handles POST /disbursements/{disbursementID}/approve.
// Trustees and group admins only. Approving is idempotent-hostile on
// purpose: a second approval from the same trustee reports conflict and
// moves nothing. When the approval set reaches the quorum of
// min(2, trustee count) the request flips to approved.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "disbursementID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid disbursement id")
		return
	}
	comment, err := decisionComment(w, r)
	if err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve disbursement")
	defer cancel()

	store := disbursementstore.New(h.DB)
	d, err := store.GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "disbursement not found")
		return
	}

	canDecide, err := h.Policy.CanDecideDisbursements(ctx, d.GroupID, userID)
	if err != nil {
		h.Log.Error("trustee check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canDecide {
		httpjson.Error(w, http.StatusForbidden, "trustees only")
		return
	}

	d, err = store.AddApproval(ctx, id, userID)
	if errors.Is(err, disbursementstore.ErrNotPending) {
		httpjson.Error(w, http.StatusConflict, "disbursement is no longer pending")
		return
	}
	if errors.Is(err, disbursementstore.ErrAlreadyApproved) {
		httpjson.Error(w, http.StatusConflict, "you have already approved this disbursement")
		return
	}
	if err != nil {
		h.Log.Error("add approval failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	activity := name + " approved disbursement \"" + d.Title + "\""
	if comment != "" {
		activity += ": " + comment
	}
	if err := h.Audit.Governance(ctx, d.GroupID, userID, activity); err != nil {
		httpjson.ServerError(w)
		return
	}

	quorum, err := h.Policy.TrusteeQuorum(ctx, d.GroupID)
	if err != nil {
		h.Log.Error("quorum lookup failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if len(d.Approvals) >= quorum {
		flipped, err := store.MarkApproved(ctx, id)
		if err != nil {
			h.Log.Error("mark approved failed", zap.Error(err))
			httpjson.ServerError(w)
			return
		}
		if flipped {
			d.Status = models.DisbursementApproved
			if err := h.Audit.Governance(ctx, d.GroupID, userID, "disbursement \""+d.Title+"\" reached quorum and was approved"); err != nil {
				httpjson.ServerError(w)
				return
			}
			h.notifyRequester(ctx, d, "Disbursement approved", "\""+d.Title+"\" was approved by the trustees.")
		} else {
			// Lost a race with a rejection; report the stored state.
			if cur, rErr := store.GetByID(ctx, id); rErr == nil {
				d = cur
			}
		}
	}

	httpjson.Write(w, http.StatusOK, h.disbursementView(ctx, d))
}

// ServeReject handles POST /disbursements/{disbursementID}/reject.
// A single rejection is a veto: terminal regardless of accumulated
// approvals.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "disbursementID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid disbursement id")
		return
	}
	comment, err := decisionComment(w, r)
	if err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reject disbursement")
	defer cancel()

	store := disbursementstore.New(h.DB)
	d, err := store.GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "disbursement not found")
		return
	}

	canDecide, err := h.Policy.CanDecideDisbursements(ctx, d.GroupID, userID)
	if err != nil {
		h.Log.Error("trustee check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canDecide {
		httpjson.Error(w, http.StatusForbidden, "trustees only")
		return
	}

	d, err = store.Reject(ctx, id, userID)
	if errors.Is(err, disbursementstore.ErrNotPending) {
		httpjson.Error(w, http.StatusConflict, "disbursement is no longer pending")
		return
	}
	if err != nil {
		h.Log.Error("reject disbursement failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	activity := name + " rejected disbursement \"" + d.Title + "\""
	if comment != "" {
		activity += ": " + comment
	}
	if err := h.Audit.Governance(ctx, d.GroupID, userID, activity); err != nil {
		httpjson.ServerError(w)
		return
	}
	h.notifyRequester(ctx, d, "Disbursement rejected", "\""+d.Title+"\" was rejected.")
	httpjson.Write(w, http.StatusOK, h.disbursementView(ctx, d))
}

func (h *Handler) notifyRequester(ctx context.Context, d models.Disbursement, title, body string) {
	if err := h.Notify.Send(ctx, d.CreatedBy, models.NotifyGovernance, title, body); err != nil {
		h.Log.Warn("notify requester failed", zap.Error(err))
	}
}

// groupName is a small helper for audit strings that want the group's
// display name.
func (h *Handler) groupName(ctx context.Context, groupID primitive.ObjectID) string {
	g, err := groupstore.New(h.DB).GetByID(ctx, groupID)
	if err != nil {
		return groupID.Hex()
	}
	return g.Name
}
