package txnstore_test

import (
	"errors"
	"testing"

	txnstore "github.com/kolohq/kolo/internal/app/store/transactions"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Record_GeneratesReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := txnstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	txn, err := store.Record(ctx, models.Transaction{
		UserID: primitive.NewObjectID(),
		Type:   models.TxnWalletFunding,
		Amount: 100000,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if txn.Reference == "" {
		t.Error("expected a generated reference")
	}
	if txn.Status != "completed" {
		t.Errorf("default status = %q, want completed", txn.Status)
	}
}

func TestStore_Record_DuplicateReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := txnstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	first, err := store.Record(ctx, models.Transaction{
		UserID:    userID,
		Type:      models.TxnWalletFunding,
		Amount:    100000,
		Reference: "fund-abc-123",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	_, err = store.Record(ctx, models.Transaction{
		UserID:    userID,
		Type:      models.TxnWalletFunding,
		Amount:    100000,
		Reference: "fund-abc-123",
	})
	if !errors.Is(err, txnstore.ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}

	got, err := store.GetByReference(ctx, "fund-abc-123")
	if err != nil {
		t.Fatalf("GetByReference failed: %v", err)
	}
	if got.ID != first.ID {
		t.Error("GetByReference returned a different transaction")
	}
}

func TestStore_ListForUser_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := txnstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	for _, amount := range []int64{100, 200, 300} {
		if _, err := store.Record(ctx, models.Transaction{
			UserID: userID,
			Type:   models.TxnWalletFunding,
			Amount: amount,
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	list, err := store.ListForUser(ctx, userID, 2, 0)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 transactions with limit 2, got %d", len(list))
	}
	if list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}
}
