// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/kolohq/kolo/internal/app/store/oauthstate"
	profilestore "github.com/kolohq/kolo/internal/app/store/profiles"
	userstore "github.com/kolohq/kolo/internal/app/store/users"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"github.com/kolohq/kolo/internal/app/system/auth"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler handles Google OAuth sign-in.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Audit    *auditlog.Logger
	States   *oauthstate.Store
	Currency string

	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, states *oauthstate.Store, clientID, clientSecret, baseURL, currency string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Audit:        audit,
		States:       states,
		Currency:     currency,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google OAuth credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: stores a one-time state token and
// redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		http.Redirect(w, r, "/login?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.States.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// googleUserInfo is the subset of Google's userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// ServeCallback handles GET /auth/google/callback: validates state,
// exchanges the code, fetches the Google profile, and signs the user in,
// creating the account on first sight of a verified email.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("google oauth error", zap.String("error", errParam))
		http.Redirect(w, r, "/login?error=google_denied", http.StatusSeeOther)
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "google callback")
	defer cancel()

	returnURL, valid, err := h.States.Validate(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		http.Redirect(w, r, "/login?error=missing_code", http.StatusSeeOther)
		return
	}
	tok, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=exchange_failed", http.StatusSeeOther)
		return
	}

	info, err := h.fetchUserInfo(ctx, tok)
	if err != nil {
		h.Log.Error("fetch google userinfo failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=userinfo_failed", http.StatusSeeOther)
		return
	}
	if !info.VerifiedEmail {
		http.Redirect(w, r, "/login?error=email_unverified", http.StatusSeeOther)
		return
	}

	u, err := h.findOrCreateUser(ctx, info)
	if err != nil {
		h.Log.Error("google sign-in user lookup failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if u.Status != "active" {
		http.Redirect(w, r, "/login?error=account_disabled", http.StatusSeeOther)
		return
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	if err := auth.SaveSession(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Audit.Auth(u.ID, "signin_google", u.Email)

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

func (h *Handler) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	return info, nil
}

// findOrCreateUser resolves the Google identity to a local account: by
// Google ID first, then by email (linking the Google ID), and finally by
// creating a fresh account with profile and wallet.
func (h *Handler) findOrCreateUser(ctx context.Context, info googleUserInfo) (models.User, error) {
	users := userstore.New(h.DB)

	u, err := users.GetByGoogleID(ctx, info.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	u, err = users.GetByEmail(ctx, info.Email)
	if err == nil {
		if linkErr := users.LinkGoogleID(ctx, u.ID, info.ID); linkErr != nil {
			return models.User{}, linkErr
		}
		u.GoogleID = info.ID
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	u, err = users.Create(ctx, models.User{
		FullName: info.Name,
		Email:    info.Email,
		GoogleID: info.ID,
	})
	if err != nil {
		return models.User{}, err
	}
	if _, err := profilestore.New(h.DB).EnsureFor(ctx, u.ID); err != nil {
		return models.User{}, err
	}
	if _, err := walletstore.New(h.DB).EnsureFor(ctx, u.ID, h.Currency); err != nil {
		return models.User{}, err
	}
	h.Audit.Auth(u.ID, "signup_google", u.Email)
	return u, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
