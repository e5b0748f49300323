package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/kolohq/kolo/internal/app/store/users"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "Ada Obi",
		Email:    "ada@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.EmailCI == "" {
		t.Error("expected EmailCI to be set")
	}
	if created.Role != "member" {
		t.Errorf("default role = %q, want member", created.Role)
	}
	if created.Status != "active" {
		t.Errorf("default status = %q, want active", created.Status)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{FullName: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Case differences fold to the same index key.
	_, err := store.Create(ctx, models.User{FullName: "Other Ada", Email: "ADA@Example.COM"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{FullName: "Bisi", Email: "bisi@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByEmail(ctx, "BISI@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("lookup by folded email returned a different user")
	}
}

func TestStore_LinkGoogleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{FullName: "Chike", Email: "chike@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.LinkGoogleID(ctx, created.ID, "google-sub-123"); err != nil {
		t.Fatalf("LinkGoogleID failed: %v", err)
	}

	got, err := store.GetByGoogleID(ctx, "google-sub-123")
	if err != nil {
		t.Fatalf("GetByGoogleID failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("GetByGoogleID returned a different user")
	}
}

func TestStore_NamesByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.User{FullName: "Ada", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := store.Create(ctx, models.User{FullName: "Bisi", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	names, err := store.NamesByIDs(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("NamesByIDs failed: %v", err)
	}
	if names[a.ID] != "Ada" || names[b.ID] != "Bisi" {
		t.Errorf("names = %v", names)
	}
}
