package wallets_test

import (
	"net/http"
	"testing"

	"github.com/kolohq/kolo/internal/app/features/transactions"
	"github.com/kolohq/kolo/internal/app/features/wallets"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*wallets.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return wallets.NewHandler(db, transactions.NewHub(logger), logger, "NGN"), db
}

func TestServeGet_CreatesWalletOnFirstRead(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.MemberUser()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/wallet", user)
	rec := testutil.NewRecorder()
	h.ServeGet(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"balance":0`)
	rec.AssertContains(t, `"currency":"NGN"`)
}

func TestServeFund(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.MemberUser()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/wallet/fund",
		map[string]any{"amount": 250000}, user)
	rec := testutil.NewRecorder()
	h.ServeFund(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"balance":250000`)
}

func TestServeFund_DuplicateReference(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.MemberUser()

	body := map[string]any{"amount": 100000, "reference": "retry-key-1"}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/wallet/fund", body, user)
	rec := testutil.NewRecorder()
	h.ServeFund(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	// Retrying with the same reference must not credit twice.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/wallet/fund", body, user)
	rec = testutil.NewRecorder()
	h.ServeFund(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/wallet", user)
	rec = testutil.NewRecorder()
	h.ServeGet(rec.ResponseRecorder, req)
	rec.AssertContains(t, `"balance":100000`)
}

func TestServeFund_RejectsNonPositiveAmount(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.MemberUser()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/wallet/fund",
		map[string]any{"amount": 0}, user)
	rec := testutil.NewRecorder()
	h.ServeFund(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServeGet_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodGet, "/wallet")
	rec := testutil.NewRecorder()
	h.ServeGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}
