// internal/app/features/groups/invites.go
package groups

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/validate"
	"github.com/go-chi/chi/v5"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	invitestore "github.com/kolohq/kolo/internal/app/store/invites"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type inviteView struct {
	Code      string `json:"code"`
	Email     string `json:"email,omitempty"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
}

type createInviteRequest struct {
	Email string `json:"email,omitempty"`
}

// ServeCreateInvite handles POST /groups/{groupID}/invites. Group admins
// only.
func (h *Handler) ServeCreateInvite(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	var req createInviteRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" && !validate.SimpleEmailValid(req.Email) {
		httpjson.Unprocessable(w, "invalid email")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create invite")
	defer cancel()

	canManage, err := h.Policy.CanManageGroup(ctx, groupID, actorID)
	if err != nil {
		h.Log.Error("manage check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canManage {
		httpjson.Error(w, http.StatusForbidden, "group admins only")
		return
	}

	inv, err := invitestore.New(h.DB).Create(ctx, groupID, actorID, req.Email, invitestore.DefaultTTL)
	if err != nil {
		h.Log.Error("create invite failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, groupID, actorID, "created an invite"); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, inviteView{
		Code:      inv.Code,
		Email:     inv.Email,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
	})
}

// ServeListInvites handles GET /groups/{groupID}/invites. Group admins
// only.
func (h *Handler) ServeListInvites(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list invites")
	defer cancel()

	canManage, err := h.Policy.CanManageGroup(ctx, groupID, actorID)
	if err != nil {
		h.Log.Error("manage check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !canManage {
		httpjson.Error(w, http.StatusForbidden, "group admins only")
		return
	}

	items, err := invitestore.New(h.DB).ListByGroup(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list invites failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]inviteView, 0, len(items))
	for _, inv := range items {
		out = append(out, inviteView{
			Code:      inv.Code,
			Email:     inv.Email,
			Status:    inv.Status,
			ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeAcceptInvite handles POST /invites/{code}/accept: redeems the code
// and enrolls the caller as a member.
func (h *Handler) ServeAcceptInvite(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	code := chi.URLParam(r, "code")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "accept invite")
	defer cancel()

	inv, err := invitestore.New(h.DB).Redeem(ctx, code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "no such invite")
		return
	}
	if errors.Is(err, invitestore.ErrInviteExpired) {
		httpjson.Error(w, http.StatusGone, "invite has expired")
		return
	}
	if errors.Is(err, invitestore.ErrInviteNotPending) {
		httpjson.Error(w, http.StatusConflict, "invite has already been used")
		return
	}
	if err != nil {
		h.Log.Error("redeem invite failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	_, err = groupstore.New(h.DB).AddMember(ctx, inv.GroupID, userID, name, models.GroupRoleMember)
	if errors.Is(err, groupstore.ErrAlreadyMember) {
		httpjson.Error(w, http.StatusConflict, "already a member of this group")
		return
	}
	if err != nil {
		h.Log.Error("enroll member failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, inv.GroupID, userID, name+" joined via invite"); err != nil {
		httpjson.ServerError(w)
		return
	}
	if err := h.Notify.Send(ctx, inv.InvitedBy, models.NotifyInvite, "Invite accepted", name+" joined the group."); err != nil {
		h.Log.Warn("notify inviter failed", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"group_id": inv.GroupID.Hex()})
}
