// internal/app/features/groups/groups.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/htmlsanitize"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/inputval"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type groupView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	Status      string `json:"status"`
}

func toView(g models.Group) groupView {
	return groupView{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy.Hex(),
		Status:      g.Status,
	}
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeCreate handles POST /groups. The creator becomes the group's
// admin.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.Name = htmlsanitize.Plain(req.Name)
	if err := inputval.Title(req.Name); err != nil {
		httpjson.Unprocessable(w, "group name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create group")
	defer cancel()

	g, err := groupstore.New(h.DB).Create(ctx, models.Group{
		Name:        req.Name,
		Description: htmlsanitize.Plain(req.Description),
		CreatedBy:   userID,
	}, name)
	if err != nil {
		h.Log.Error("create group failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, g.ID, userID, "created the group \""+g.Name+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(g))
}

// ServeListMine handles GET /groups: the caller's groups.
func (h *Handler) ServeListMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	items, err := groupstore.New(h.DB).ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]groupView, 0, len(items))
	for _, g := range items {
		out = append(out, toView(g))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeGet handles GET /groups/{groupID}. Members only.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get group")
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

	g, err := groupstore.New(h.DB).GetByID(ctx, groupID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "group not found")
		return
	}
	httpjson.Write(w, http.StatusOK, toView(g))
}
