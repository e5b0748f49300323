package campaignstore_test

import (
	"errors"
	"testing"

	campaignstore "github.com/kolohq/kolo/internal/app/store/campaigns"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Contribute_GrowsRunningTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCampaign(ctx, primitive.NewObjectID(), "Borehole for Umuola", 5000000)

	after, err := store.Contribute(ctx, c.ID, 250000)
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if after.CurrentAmount != 250000 {
		t.Errorf("current_amount = %d, want 250000", after.CurrentAmount)
	}

	after, err = store.Contribute(ctx, c.ID, 100000)
	if err != nil {
		t.Fatalf("second Contribute failed: %v", err)
	}
	if after.CurrentAmount != 350000 {
		t.Errorf("current_amount = %d, want 350000", after.CurrentAmount)
	}
}

func TestStore_Contribute_ClosedCampaign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCampaign(ctx, primitive.NewObjectID(), "School roof", 1000000)
	if err := store.Close(ctx, c.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := store.Contribute(ctx, c.ID, 50000)
	if !errors.Is(err, campaignstore.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}

	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CurrentAmount != 0 {
		t.Errorf("current_amount changed on a closed campaign: %d", got.CurrentAmount)
	}
}

func TestStore_List_FiltersByStatusAndCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := campaignstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active := fixtures.CreateCampaign(ctx, primitive.NewObjectID(), "Active drive", 100000)
	closed := fixtures.CreateCampaign(ctx, primitive.NewObjectID(), "Closed drive", 100000)
	if err := store.Close(ctx, closed.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	list, err := store.List(ctx, "active", "", 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Errorf("expected only the active campaign, got %d entries", len(list))
	}

	list, err = store.List(ctx, "", "community", 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected both community campaigns, got %d", len(list))
	}
}
