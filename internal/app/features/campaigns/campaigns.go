// internal/app/features/campaigns/campaigns.go
package campaigns

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	campaignstore "github.com/kolohq/kolo/internal/app/store/campaigns"
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

var categories = map[string]bool{
	"education": true,
	"health":    true,
	"business":  true,
	"emergency": true,
	"community": true,
	"other":     true,
}

type campaignView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TargetAmount  int64  `json:"target_amount"`
	CurrentAmount int64  `json:"current_amount"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	EndDate       string `json:"end_date,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	CreatedBy     string `json:"created_by"`
}

func toView(c models.Campaign) campaignView {
	v := campaignView{
		ID:            c.ID.Hex(),
		Title:         c.Title,
		Description:   c.Description,
		TargetAmount:  c.TargetAmount,
		CurrentAmount: c.CurrentAmount,
		Category:      c.Category,
		Status:        c.Status,
		ImageURL:      c.ImageURL,
		CreatedBy:     c.CreatedBy.Hex(),
	}
	if c.EndDate != nil {
		v.EndDate = c.EndDate.Format("2006-01-02")
	}
	return v
}

type createRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetAmount int64  `json:"target_amount"`
	Category     string `json:"category"`
	EndDate      string `json:"end_date,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

// ServeCreate handles POST /campaigns.
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
	req.Title = htmlsanitize.Plain(req.Title)
	req.Description = htmlsanitize.Plain(req.Description)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := inputval.Title(req.Title); err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		httpjson.Unprocessable(w, "description is required")
		return
	}
	if err := inputval.Amount(req.TargetAmount); err != nil {
		httpjson.Unprocessable(w, "target amount must be greater than zero")
		return
	}
	if !categories[req.Category] {
		httpjson.Unprocessable(w, "unknown category")
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			httpjson.Unprocessable(w, "end_date must be YYYY-MM-DD")
			return
		}
		if t.Before(time.Now().UTC()) {
			httpjson.Unprocessable(w, "end_date must be in the future")
			return
		}
		endDate = &t
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create campaign")
	defer cancel()

	c, err := campaignstore.New(h.DB).Create(ctx, models.Campaign{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Category:     req.Category,
		EndDate:      endDate,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		CreatedBy:    userID,
	})
	if err != nil {
		h.Log.Error("create campaign failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(c))
}

// ServeList handles GET /campaigns?status=&category=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list campaigns")
	defer cancel()

	items, err := campaignstore.New(h.DB).List(ctx,
		strings.ToLower(query.Get(r, "status")),
		strings.ToLower(query.Get(r, "category")),
		paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list campaigns failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]campaignView, 0, len(items))
	for _, c := range items {
		out = append(out, toView(c))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeGet handles GET /campaigns/{campaignID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "campaignID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid campaign id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get campaign")
	defer cancel()

	c, err := campaignstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "campaign not found")
		return
	}
	httpjson.Write(w, http.StatusOK, toView(c))
}

// ServeClose handles POST /campaigns/{campaignID}/close. Creator or
// platform admin only.
func (h *Handler) ServeClose(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "campaignID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid campaign id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "close campaign")
	defer cancel()

	store := campaignstore.New(h.DB)
	c, err := store.GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "campaign not found")
		return
	}
	if c.CreatedBy != userID && role != "admin" {
		httpjson.Error(w, http.StatusForbidden, "only the creator can close a campaign")
		return
	}
	if err := store.Close(ctx, id); err != nil {
		httpjson.Error(w, http.StatusConflict, "campaign is not active")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "closed"})
}
