// internal/app/features/login/signup.go
package login

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
	profilestore "github.com/kolohq/kolo/internal/app/store/profiles"
	userstore "github.com/kolohq/kolo/internal/app/store/users"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/auth"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type signUpRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ServeSignUp handles POST /auth/signup. Creating an account also
// provisions the user's profile and main wallet so first login never sees
// a half-initialized state.
func (h *Handler) ServeSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.FullName == "":
		httpjson.Unprocessable(w, "full name is required")
		return
	case req.Email == "" || !validate.SimpleEmailValid(req.Email):
		httpjson.Unprocessable(w, "a valid email is required")
		return
	case len(req.Password) < minPasswordLen:
		httpjson.Unprocessable(w, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("bcrypt hash failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "sign up")
	defer cancel()

	users := userstore.New(h.DB)
	u, err := users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		httpjson.Error(w, http.StatusConflict, "an account with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("create user failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if _, err := profilestore.New(h.DB).EnsureFor(ctx, u.ID); err != nil {
		h.Log.Error("provision profile failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if _, err := walletstore.New(h.DB).EnsureFor(ctx, u.ID, h.Currency); err != nil {
		h.Log.Error("provision wallet failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	h.Audit.Auth(u.ID, "signup", u.Email)
	h.issueSession(w, r, u, http.StatusCreated)
}

// issueSession writes the session cookie, mints a bearer token, and
// responds with both token and user. Shared by sign-up, sign-in, and the
// Google callback.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if err := auth.SaveSession(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	token, err := auth.IssueToken(su)
	if err != nil {
		h.Log.Error("issue token failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, status, authResponse{
		Token: token,
		User: userView{
			ID:       su.ID,
			FullName: su.Name,
			Email:    su.Email,
			Role:     su.Role,
		},
	})
}
