package ajostore_test

import (
	"errors"
	"testing"
	"time"

	ajostore "github.com/kolohq/kolo/internal/app/store/ajo"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func createAjoGroup(t *testing.T, store *ajostore.Store, maxMembers int) models.AjoGroup {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, err := store.Create(ctx, models.AjoGroup{
		Name:               "Market Traders Circle",
		ContributionAmount: 500000,
		Frequency:          "weekly",
		MaxMembers:         maxMembers,
		CreatedBy:          primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return g
}

func TestStore_Create_SeatsCreatorFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 10)

	if g.Status != models.AjoOpen {
		t.Errorf("expected status open, got %q", g.Status)
	}
	if g.CurrentMembers != 1 {
		t.Errorf("expected 1 current member, got %d", g.CurrentMembers)
	}

	m, err := store.GetMembership(ctx, g.ID, g.CreatedBy)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if m.Position != 1 {
		t.Errorf("creator position = %d, want 1", m.Position)
	}
}

func TestStore_Join_AssignsSequentialPositions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 5)

	m2, err := store.Join(ctx, g.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("first Join failed: %v", err)
	}
	m3, err := store.Join(ctx, g.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("second Join failed: %v", err)
	}
	if m2.Position != 2 || m3.Position != 3 {
		t.Errorf("positions = %d, %d; want 2, 3", m2.Position, m3.Position)
	}
}

func TestStore_Join_FullGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 2)

	if _, err := store.Join(ctx, g.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	_, err := store.Join(ctx, g.ID, primitive.NewObjectID())
	if !errors.Is(err, ajostore.ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}
}

func TestStore_Join_Twice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 5)
	userID := primitive.NewObjectID()

	if _, err := store.Join(ctx, g.ID, userID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	_, err := store.Join(ctx, g.ID, userID)
	if !errors.Is(err, ajostore.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	// The failed join must give the seat back.
	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CurrentMembers != 2 {
		t.Errorf("current_members = %d after duplicate join, want 2", got.CurrentMembers)
	}
}

func TestStore_Activate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 3)

	start := time.Now().UTC()
	next := start.Add(7 * 24 * time.Hour)
	if err := store.Activate(ctx, g.ID, start, next); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	got, err := store.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.AjoActive {
		t.Errorf("expected status active, got %q", got.Status)
	}
	if got.StartDate == nil || got.NextPayoutDate == nil {
		t.Error("expected start and next payout dates to be set")
	}

	// Activating twice fails; the group is no longer open.
	if err := store.Activate(ctx, g.ID, start, next); err == nil {
		t.Error("expected second Activate to fail")
	}
}

func TestStore_AddContribution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ajostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := createAjoGroup(t, store, 3)

	if err := store.AddContribution(ctx, g.ID, g.CreatedBy, 500000); err != nil {
		t.Fatalf("AddContribution failed: %v", err)
	}
	if err := store.AddContribution(ctx, g.ID, g.CreatedBy, 500000); err != nil {
		t.Fatalf("second AddContribution failed: %v", err)
	}

	m, err := store.GetMembership(ctx, g.ID, g.CreatedBy)
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if m.TotalContributed != 1000000 {
		t.Errorf("total_contributed = %d, want 1000000", m.TotalContributed)
	}

	err = store.AddContribution(ctx, g.ID, primitive.NewObjectID(), 500000)
	if !errors.Is(err, ajostore.ErrNotMember) {
		t.Errorf("expected ErrNotMember for an outsider, got %v", err)
	}
}
