package notificationstore_test

import (
	"errors"
	"testing"

	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_SendAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()

	if err := store.Send(ctx, userID, models.NotifyGovernance, "Disbursement approved", "Funds released"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := store.Send(ctx, userID, models.NotifyPayment, "Dues recorded", ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	items, err := store.ListForUser(ctx, userID, 20, 0)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(items))
	}

	unread, err := store.CountUnread(ctx, userID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 2 {
		t.Errorf("unread = %d, want 2", unread)
	}
}

func TestStore_MarkRead_OwnerScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	if err := store.Send(ctx, owner, models.NotifyInvite, "You were invited", ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	items, err := store.ListForUser(ctx, owner, 1, 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("ListForUser failed: %v (%d items)", err, len(items))
	}

	// Another user cannot mark it read.
	err = store.MarkRead(ctx, items[0].ID, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments for a non-owner, got %v", err)
	}

	if err := store.MarkRead(ctx, items[0].ID, owner); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	unread, err := store.CountUnread(ctx, owner)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestStore_SendMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	if err := store.SendMany(ctx, []primitive.ObjectID{a, b}, models.NotifyPayment, "New due posted", ""); err != nil {
		t.Fatalf("SendMany failed: %v", err)
	}

	for _, id := range []primitive.ObjectID{a, b} {
		unread, err := store.CountUnread(ctx, id)
		if err != nil {
			t.Fatalf("CountUnread failed: %v", err)
		}
		if unread != 1 {
			t.Errorf("unread for %s = %d, want 1", id.Hex(), unread)
		}
	}
}
