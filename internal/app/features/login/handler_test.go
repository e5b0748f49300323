package login_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kolohq/kolo/internal/app/features/login"
	auditstore "github.com/kolohq/kolo/internal/app/store/audit"
	profilestore "github.com/kolohq/kolo/internal/app/store/profiles"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"github.com/kolohq/kolo/internal/app/system/auth"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	if err := auth.InitSessionStore("0123456789abcdef0123456789abcdef", "kolo_test_session", "", false, logger); err != nil {
		t.Fatalf("InitSessionStore failed: %v", err)
	}
	auth.InitTokens("test-jwt-secret", time.Hour)
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{})
	return login.NewHandler(db, audit, logger, "NGN"), db
}

func postJSON(t *testing.T, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServeSignUp_ProvisionsProfileAndWallet(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := postJSON(t, map[string]string{
		"full_name": "Ada Obi",
		"email":     "ada@example.com",
		"password":  "correct horse",
	})
	rec := httptest.NewRecorder()
	h.ServeSignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a bearer token")
	}
	if resp.User.Role != "member" {
		t.Errorf("role = %q, want member", resp.User.Role)
	}

	userID, err := primitive.ObjectIDFromHex(resp.User.ID)
	if err != nil {
		t.Fatalf("invalid user id in response: %v", err)
	}
	if _, err := profilestore.New(db).GetByUser(ctx, userID); err != nil {
		t.Errorf("expected a provisioned profile: %v", err)
	}
	wallet, err := walletstore.New(db).GetByUser(ctx, userID)
	if err != nil {
		t.Fatalf("expected a provisioned wallet: %v", err)
	}
	if wallet.Currency != "NGN" || wallet.Balance != 0 {
		t.Errorf("wallet = %s/%d, want NGN/0", wallet.Currency, wallet.Balance)
	}
}

func TestServeSignUp_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	body := map[string]string{
		"full_name": "Ada Obi",
		"email":     "ada@example.com",
		"password":  "long enough",
	}
	rec := httptest.NewRecorder()
	h.ServeSignUp(rec, postJSON(t, body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first signup: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeSignUp(rec, postJSON(t, body))
	if rec.Code != http.StatusConflict {
		t.Errorf("second signup: status = %d, want 409", rec.Code)
	}
}

func TestServeSignUp_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@example.com", "password": "long enough"}},
		{"bad email", map[string]string{"full_name": "Ada", "email": "not-an-email", "password": "long enough"}},
		{"short password", map[string]string{"full_name": "Ada", "email": "a@example.com", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeSignUp(rec, postJSON(t, tc.body))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestServeSignIn(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeSignUp(rec, postJSON(t, map[string]string{
		"full_name": "Bisi Ade",
		"email":     "bisi@example.com",
		"password":  "a fine password",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeSignIn(rec, postJSON(t, map[string]string{
		"email":    "bisi@example.com",
		"password": "a fine password",
	}))
	if rec.Code != http.StatusOK {
		t.Errorf("signin: status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
}

func TestServeSignIn_WrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeSignUp(rec, postJSON(t, map[string]string{
		"full_name": "Chike Eze",
		"email":     "chike@example.com",
		"password":  "a fine password",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeSignIn(rec, postJSON(t, map[string]string{
		"email":    "chike@example.com",
		"password": "wrong password",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServeSignIn_UnknownEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeSignIn(rec, postJSON(t, map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever works",
	}))
	// Identical response for unknown email and wrong password.
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
