// internal/app/features/ajo/ajo.go
package ajo

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	ajostore "github.com/kolohq/kolo/internal/app/store/ajo"
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

const (
	minMembers = 2
	maxMembers = 50
)

type groupView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	ContributionAmount int64  `json:"contribution_amount"`
	Frequency          string `json:"frequency"`
	MaxMembers         int    `json:"max_members"`
	CurrentMembers     int    `json:"current_members"`
	Status             string `json:"status"`
	CreatedBy          string `json:"created_by"`
}

func toView(g models.AjoGroup) groupView {
	return groupView{
		ID:                 g.ID.Hex(),
		Name:               g.Name,
		Description:        g.Description,
		ContributionAmount: g.ContributionAmount,
		Frequency:          g.Frequency,
		MaxMembers:         g.MaxMembers,
		CurrentMembers:     g.CurrentMembers,
		Status:             g.Status,
		CreatedBy:          g.CreatedBy.Hex(),
	}
}

type createRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	ContributionAmount int64  `json:"contribution_amount"`
	Frequency          string `json:"frequency"`
	MaxMembers         int    `json:"max_members"`
}

// ServeCreate handles POST /ajo. The creator takes seat 1.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
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
	req.Frequency = strings.ToLower(strings.TrimSpace(req.Frequency))
	switch {
	case inputval.Title(req.Name) != nil:
		httpjson.Unprocessable(w, "group name is required")
		return
	case inputval.Amount(req.ContributionAmount) != nil:
		httpjson.Unprocessable(w, "contribution amount must be greater than zero")
		return
	case req.Frequency != "weekly" && req.Frequency != "monthly":
		httpjson.Unprocessable(w, "frequency must be weekly or monthly")
		return
	case req.MaxMembers < minMembers || req.MaxMembers > maxMembers:
		httpjson.Unprocessable(w, "max members must be between 2 and 50")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create ajo group")
	defer cancel()

	g, err := ajostore.New(h.DB).Create(ctx, models.AjoGroup{
		Name:               req.Name,
		Description:        htmlsanitize.Plain(req.Description),
		ContributionAmount: req.ContributionAmount,
		Frequency:          req.Frequency,
		MaxMembers:         req.MaxMembers,
		CreatedBy:          userID,
	})
	if err != nil {
		h.Log.Error("create ajo group failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(g))
}

// ServeListOpen handles GET /ajo: groups still accepting members.
func (h *Handler) ServeListOpen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list open ajo groups")
	defer cancel()

	items, err := ajostore.New(h.DB).ListOpen(ctx, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list ajo groups failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]groupView, 0, len(items))
	for _, g := range items {
		out = append(out, toView(g))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeListMine handles GET /ajo/mine.
func (h *Handler) ServeListMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list my ajo groups")
	defer cancel()

	items, err := ajostore.New(h.DB).ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("list my ajo groups failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]groupView, 0, len(items))
	for _, g := range items {
		out = append(out, toView(g))
	}
	httpjson.Write(w, http.StatusOK, out)
}

type memberSeatView struct {
	UserID           string `json:"user_id"`
	Position         int    `json:"position"`
	TotalContributed int64  `json:"total_contributed"`
	PayoutReceived   bool   `json:"payout_received"`
}

// ServeGet handles GET /ajo/{groupID}: the group plus its seats.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get ajo group")
	defer cancel()

	store := ajostore.New(h.DB)
	g, err := store.GetByID(ctx, groupID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "ajo group not found")
		return
	}
	seats, err := store.Memberships(ctx, groupID)
	if err != nil {
		h.Log.Error("list ajo seats failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	seatViews := make([]memberSeatView, 0, len(seats))
	for _, m := range seats {
		seatViews = append(seatViews, memberSeatView{
			UserID:           m.UserID.Hex(),
			Position:         m.Position,
			TotalContributed: m.TotalContributed,
			PayoutReceived:   m.PayoutReceived,
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"group":   toView(g),
		"members": seatViews,
	})
}

// ServeJoin handles POST /ajo/{groupID}/join.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "join ajo group")
	defer cancel()

	store := ajostore.New(h.DB)
	m, err := store.Join(ctx, groupID, userID)
	if errors.Is(err, ajostore.ErrGroupFull) {
		httpjson.Error(w, http.StatusConflict, "group is full or no longer open")
		return
	}
	if errors.Is(err, ajostore.ErrAlreadyJoined) {
		httpjson.Error(w, http.StatusConflict, "already a member of this group")
		return
	}
	if err != nil {
		h.Log.Error("join ajo group failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	g, err := store.GetByID(ctx, groupID)
	if err == nil {
		if nErr := h.Notify.Send(ctx, g.CreatedBy, models.NotifyGovernance, "New ajo member", name+" joined "+g.Name+"."); nErr != nil {
			h.Log.Warn("notify ajo creator failed", zap.Error(nErr))
		}
	}
	httpjson.Write(w, http.StatusCreated, memberSeatView{
		UserID:   m.UserID.Hex(),
		Position: m.Position,
	})
}

type activateRequest struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD; defaults to today
}

// ServeActivate handles POST /ajo/{groupID}/activate: the creator starts
// the rotation once the group is full.
func (h *Handler) ServeActivate(w http.ResponseWriter, r *http.Request) {
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

	// Body is optional; an absent body means "start today".
	var req activateRequest
	if err := httpjson.Decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	start := time.Now().UTC()
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			httpjson.Unprocessable(w, "start_date must be YYYY-MM-DD")
			return
		}
		start = t
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activate ajo group")
	defer cancel()

	store := ajostore.New(h.DB)
	g, err := store.GetByID(ctx, groupID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "ajo group not found")
		return
	}
	if g.CreatedBy != userID {
		httpjson.Error(w, http.StatusForbidden, "only the group creator can activate")
		return
	}
	if g.CurrentMembers < g.MaxMembers {
		httpjson.Error(w, http.StatusConflict, "group is not full yet")
		return
	}

	next := nextPayout(start, g.Frequency)
	if err := store.Activate(ctx, groupID, start, next); err != nil {
		httpjson.Error(w, http.StatusConflict, "group is not open")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{
		"status":           models.AjoActive,
		"next_payout_date": next.Format("2006-01-02"),
	})
}

// nextPayout returns the first payout date after start for the rotation
// frequency.
func nextPayout(start time.Time, frequency string) time.Time {
	if frequency == "weekly" {
		return start.AddDate(0, 0, 7)
	}
	return start.AddDate(0, 1, 0)
}
