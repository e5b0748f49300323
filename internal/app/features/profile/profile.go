// internal/app/features/profile/profile.go
package profile

import (
	"net/http"
	"strings"
	"time"

	profilestore "github.com/kolohq/kolo/internal/app/store/profiles"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/htmlsanitize"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.uber.org/zap"
)

type profileView struct {
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Address     string `json:"address,omitempty"`
	KYCStatus   string `json:"kyc_status"`
}

func toView(p models.Profile) profileView {
	return profileView{
		UserID:      p.UserID.Hex(),
		PhoneNumber: p.PhoneNumber,
		DateOfBirth: p.DateOfBirth,
		Address:     p.Address,
		KYCStatus:   p.KYCStatus,
	}
}

// ServeGet handles GET /profile. The profile is provisioned at sign-up,
// but EnsureFor covers accounts that predate that.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	p, err := profilestore.New(h.DB).EnsureFor(ctx, userID)
	if err != nil {
		h.Log.Error("get profile failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, toView(p))
}

type updateRequest struct {
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
}

// ServeUpdate handles PUT /profile.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	if req.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", req.DateOfBirth); err != nil {
			httpjson.Unprocessable(w, "date_of_birth must be YYYY-MM-DD")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()

	store := profilestore.New(h.DB)
	if _, err := store.EnsureFor(ctx, userID); err != nil {
		h.Log.Error("ensure profile failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	err := store.Update(ctx, userID,
		strings.TrimSpace(req.PhoneNumber),
		req.DateOfBirth,
		htmlsanitize.Plain(req.Address),
	)
	if err != nil {
		h.Log.Error("update profile failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	p, err := store.GetByUser(ctx, userID)
	if err != nil {
		h.Log.Error("reload profile failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, toView(p))
}
