package walletstore_test

import (
	"errors"
	"testing"

	walletstore "github.com/kolohq/kolo/internal/app/store/wallets"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_EnsureFor_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := walletstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()

	first, err := store.EnsureFor(ctx, userID, "NGN")
	if err != nil {
		t.Fatalf("EnsureFor failed: %v", err)
	}
	if first.Balance != 0 {
		t.Errorf("new wallet balance = %d, want 0", first.Balance)
	}
	if first.Currency != "NGN" {
		t.Errorf("currency = %q, want NGN", first.Currency)
	}

	second, err := store.EnsureFor(ctx, userID, "NGN")
	if err != nil {
		t.Fatalf("second EnsureFor failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("EnsureFor created a second wallet for the same user")
	}
}

func TestStore_CreditAndDebit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := walletstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	wallet := fixtures.CreateWallet(ctx, primitive.NewObjectID(), 100000)

	after, err := store.Credit(ctx, wallet.ID, 50000)
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if after.Balance != 150000 {
		t.Errorf("balance after credit = %d, want 150000", after.Balance)
	}

	after, err = store.Debit(ctx, wallet.ID, 120000)
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if after.Balance != 30000 {
		t.Errorf("balance after debit = %d, want 30000", after.Balance)
	}
}

func TestStore_Debit_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := walletstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	wallet := fixtures.CreateWallet(ctx, primitive.NewObjectID(), 5000)

	_, err := store.Debit(ctx, wallet.ID, 5001)
	if !errors.Is(err, walletstore.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	got, err := store.GetByUser(ctx, wallet.UserID)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.Balance != 5000 {
		t.Errorf("balance changed on failed debit: %d", got.Balance)
	}
}

func TestStore_RejectsNonPositiveAmounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := walletstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	wallet := fixtures.CreateWallet(ctx, primitive.NewObjectID(), 1000)

	if _, err := store.Credit(ctx, wallet.ID, 0); !errors.Is(err, walletstore.ErrAmountNotPositive) {
		t.Errorf("Credit(0): expected ErrAmountNotPositive, got %v", err)
	}
	if _, err := store.Debit(ctx, wallet.ID, -5); !errors.Is(err, walletstore.ErrAmountNotPositive) {
		t.Errorf("Debit(-5): expected ErrAmountNotPositive, got %v", err)
	}
}
