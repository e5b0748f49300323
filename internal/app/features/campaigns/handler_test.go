package campaigns_test

import (
	"net/http"
	"testing"

	"github.com/kolohq/kolo/internal/app/features/campaigns"
	"github.com/kolohq/kolo/internal/app/features/transactions"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*campaigns.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return campaigns.NewHandler(db, transactions.NewHub(logger), notificationstore.New(db), logger), db
}

func TestServeContribute_DebitsWallet(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateMember(ctx, "Ada Obi", "ada@example.com")
	fixtures.CreateWallet(ctx, donor.ID, 500000)
	creator := fixtures.CreateMember(ctx, "Bisi Ade", "bisi@example.com")
	c := fixtures.CreateCampaign(ctx, creator.ID, "Borehole fund", 5000000)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/campaigns/"+c.ID.Hex()+"/contribute",
		map[string]any{"amount": 200000},
		testutil.UserFor(donor.ID, donor.FullName, donor.Email, "member"))
	req = testutil.WithChiURLParam(req, "campaignID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeContribute(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"current_amount":200000`)

	wal, err := walletstore.New(db).GetByUser(ctx, donor.ID)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if wal.Balance != 300000 {
		t.Errorf("donor balance = %d, want 300000", wal.Balance)
	}

	// The campaign creator was notified.
	unread, err := notificationstore.New(db).CountUnread(ctx, creator.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 1 {
		t.Errorf("creator unread notifications = %d, want 1", unread)
	}
}

func TestServeContribute_InsufficientFunds(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	donor := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	fixtures.CreateWallet(ctx, donor.ID, 1000)
	c := fixtures.CreateCampaign(ctx, fixtures.CreateMember(ctx, "B", "b@example.com").ID, "Drive", 100000)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/x",
		map[string]any{"amount": 5000},
		testutil.UserFor(donor.ID, donor.FullName, donor.Email, "member"))
	req = testutil.WithChiURLParam(req, "campaignID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeContribute(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)

	wal, err := walletstore.New(db).GetByUser(ctx, donor.ID)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if wal.Balance != 1000 {
		t.Errorf("balance changed on failed contribution: %d", wal.Balance)
	}
}
