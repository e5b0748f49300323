// internal/app/features/groups/members.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memberView struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// ServeMembers handles GET /groups/{groupID}/members. Members only.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
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

	items, err := groupstore.New(h.DB).Members(ctx, groupID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]memberView, 0, len(items))
	for _, m := range items {
		out = append(out, memberView{
			UserID:   m.UserID.Hex(),
			Name:     m.Name,
			Role:     m.Role,
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}

var groupRoles = map[string]bool{
	models.GroupRoleMember:  true,
	models.GroupRoleTrustee: true,
	models.GroupRoleAdmin:   true,
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// ServeSetRole handles PUT /groups/{groupID}/members/{userID}/role.
// Group admins only. An admin cannot demote themselves while they are the
// last admin, or the group would be orphaned.
func (h *Handler) ServeSetRole(w http.ResponseWriter, r *http.Request) {
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
	subjectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid user id")
		return
	}

	var req setRoleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !groupRoles[role] {
		httpjson.Unprocessable(w, "role must be member, trustee, or admin")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "set member role")
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

	store := groupstore.New(h.DB)
	subject, err := store.GetMember(ctx, groupID, subjectID)
	if errors.Is(err, groupstore.ErrNotMember) {
		httpjson.Error(w, http.StatusNotFound, "no such member")
		return
	}
	if err != nil {
		h.Log.Error("load member failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if subjectID == actorID && subject.Role == models.GroupRoleAdmin && role != models.GroupRoleAdmin {
		admins, err := countAdmins(ctx, store, groupID)
		if err != nil {
			h.Log.Error("count admins failed", zap.Error(err))
			httpjson.ServerError(w)
			return
		}
		if admins <= 1 {
			httpjson.Error(w, http.StatusConflict, "cannot demote the last group admin")
			return
		}
	}

	if err := store.SetMemberRole(ctx, groupID, subjectID, role); err != nil {
		h.Log.Error("set role failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	activity := "changed " + subject.Name + "'s role from " + subject.Role + " to " + role
	if err := h.Audit.Governance(ctx, groupID, actorID, activity); err != nil {
		httpjson.ServerError(w)
		return
	}
	if err := h.Notify.Send(ctx, subjectID, models.NotifyGovernance, "Your group role changed", "You are now a "+role+"."); err != nil {
		h.Log.Warn("notify role change failed", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"role": role})
}

func countAdmins(ctx context.Context, store *groupstore.Store, groupID primitive.ObjectID) (int, error) {
	members, err := store.Members(ctx, groupID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if m.Role == models.GroupRoleAdmin {
			n++
		}
	}
	return n, nil
}
