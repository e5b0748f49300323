// internal/app/features/dues/dues.go
package dues

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	duesstore "github.com/kolohq/kolo/internal/app/store/dues"
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

type dueView struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status,omitempty"` // caller's own status on list
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
}

// ServeCreate handles POST /groups/{groupID}/dues. Group admins only;
// every member owes the due once it exists.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
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

	var req createRequest
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
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		httpjson.Unprocessable(w, "due_date must be YYYY-MM-DD")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create due")
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

	d, err := duesstore.New(h.DB).Create(ctx, models.Due{
		GroupID:     groupID,
		Title:       req.Title,
		Description: htmlsanitize.Plain(req.Description),
		Amount:      req.Amount,
		DueDate:     dueDate,
		CreatedBy:   actorID,
	})
	if err != nil {
		h.Log.Error("create due failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, groupID, actorID, "created due \""+d.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}

	// Tell every member they owe something.
	if ids, mErr := groupstore.New(h.DB).MemberIDs(ctx, groupID); mErr == nil {
		if nErr := h.Notify.SendMany(ctx, ids, models.NotifyPayment, "New due: "+d.Title, "Amount due by "+d.DueDate.Format("2006-01-02")+"."); nErr != nil {
			h.Log.Warn("notify members of due failed", zap.Error(nErr))
		}
	}

	httpjson.Write(w, http.StatusCreated, dueView{
		ID:      d.ID.Hex(),
		GroupID: d.GroupID.Hex(),
		Title:   d.Title,
		Amount:  d.Amount,
		DueDate: d.DueDate.Format("2006-01-02"),
	})
}

// ServeList handles GET /groups/{groupID}/dues: the group's dues with the
// caller's own payment status attached.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list dues")
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

	store := duesstore.New(h.DB)
	items, err := store.ListByGroup(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list dues failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	dueIDs := make([]primitive.ObjectID, 0, len(items))
	for _, d := range items {
		dueIDs = append(dueIDs, d.ID)
	}
	payments, err := store.PaymentsForUser(ctx, dueIDs, userID)
	if err != nil {
		h.Log.Error("load payments failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	now := time.Now().UTC()
	out := make([]dueView, 0, len(items))
	for _, d := range items {
		_, paid := payments[d.ID]
		out = append(out, dueView{
			ID:          d.ID.Hex(),
			GroupID:     d.GroupID.Hex(),
			Title:       d.Title,
			Description: d.Description,
			Amount:      d.Amount,
			DueDate:     d.DueDate.Format("2006-01-02"),
			Status:      duesstore.DeriveStatus(d, paid, now),
		})
	}
	httpjson.Write(w, http.StatusOK, out)
}
