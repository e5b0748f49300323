// internal/app/features/login/signin.go
package login

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/kolohq/kolo/internal/app/store/users"
	"github.com/kolohq/kolo/internal/app/system/auth"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeSignIn handles POST /auth/signin. The response is identical for a
// missing account and a wrong password so the endpoint cannot be used to
// probe which emails exist.
func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpjson.Unprocessable(w, "email and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sign in")
	defer cancel()

	u, err := userstore.New(h.DB).GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.Log.Error("lookup user failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if u.Status != "active" {
		httpjson.Error(w, http.StatusForbidden, "account is disabled")
		return
	}
	if u.PasswordHash == "" {
		// Google-only account; no password to check.
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.Audit.Auth(u.ID, "signin", u.Email)
	h.issueSession(w, r, u, http.StatusOK)
}

// ServeSignOut handles POST /auth/signout.
func (h *Handler) ServeSignOut(w http.ResponseWriter, r *http.Request) {
	if err := auth.ClearSession(w, r); err != nil {
		h.Log.Warn("clear session failed", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
