package disbursementstore_test

import (
	"errors"
	"testing"

	disbursementstore "github.com/kolohq/kolo/internal/app/store/disbursements"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := disbursementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Disbursement{
		GroupID:   primitive.NewObjectID(),
		Title:     "Community hall repairs",
		Amount:    500000,
		CreatedBy: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Status != models.DisbursementPending {
		t.Errorf("expected status %q, got %q", models.DisbursementPending, created.Status)
	}
	if created.Approvals == nil || len(created.Approvals) != 0 {
		t.Errorf("expected empty approvals set, got %v", created.Approvals)
	}
}

func TestStore_AddApproval_ReachesQuorum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := disbursementstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	d := fixtures.CreateDisbursement(ctx, groupID, primitive.NewObjectID(), "School levy payout", 250000)

	trusteeA := primitive.NewObjectID()
	trusteeB := primitive.NewObjectID()

	after, err := store.AddApproval(ctx, d.ID, trusteeA)
	if err != nil {
		t.Fatalf("first AddApproval failed: %v", err)
	}
	if len(after.Approvals) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(after.Approvals))
	}
	if after.Status != models.DisbursementPending {
		t.Errorf("expected status still pending after one approval, got %q", after.Status)
	}

	after, err = store.AddApproval(ctx, d.ID, trusteeB)
	if err != nil {
		t.Fatalf("second AddApproval failed: %v", err)
	}
	if len(after.Approvals) != 2 {
		t.Fatalf("expected 2 approvals, got %d", len(after.Approvals))
	}

	flipped, err := store.MarkApproved(ctx, d.ID)
	if err != nil {
		t.Fatalf("MarkApproved failed: %v", err)
	}
	if !flipped {
		t.Error("expected MarkApproved to flip a pending disbursement")
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.DisbursementApproved {
		t.Errorf("expected status approved, got %q", got.Status)
	}
}

func TestStore_AddApproval_SameTrusteeTwice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := disbursementstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDisbursement(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "Water project", 100000)
	trustee := primitive.NewObjectID()

	if _, err := store.AddApproval(ctx, d.ID, trustee); err != nil {
		t.Fatalf("first AddApproval failed: %v", err)
	}

	_, err := store.AddApproval(ctx, d.ID, trustee)
	if !errors.Is(err, disbursementstore.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Approvals) != 1 {
		t.Errorf("expected approvals unchanged at 1, got %d", len(got.Approvals))
	}
}

func TestStore_Reject_IsTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := disbursementstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDisbursement(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "Road grading", 750000)
	trustee := primitive.NewObjectID()

	rejected, err := store.Reject(ctx, d.ID, trustee)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != models.DisbursementRejected {
		t.Errorf("expected status rejected, got %q", rejected.Status)
	}
	if rejected.RejectedBy == nil || *rejected.RejectedBy != trustee {
		t.Error("expected rejected_by to record the vetoing trustee")
	}

	// No further approvals or rejections once terminal.
	if _, err := store.AddApproval(ctx, d.ID, primitive.NewObjectID()); !errors.Is(err, disbursementstore.ErrNotPending) {
		t.Errorf("expected ErrNotPending approving a rejected disbursement, got %v", err)
	}
	if _, err := store.Reject(ctx, d.ID, primitive.NewObjectID()); !errors.Is(err, disbursementstore.ErrNotPending) {
		t.Errorf("expected ErrNotPending rejecting twice, got %v", err)
	}
}

func TestStore_MarkApproved_OnlyFlipsPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := disbursementstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDisbursement(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "Generator fuel", 50000)

	if _, err := store.Reject(ctx, d.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	flipped, err := store.MarkApproved(ctx, d.ID)
	if err != nil {
		t.Fatalf("MarkApproved failed: %v", err)
	}
	if flipped {
		t.Error("MarkApproved must not flip a rejected disbursement")
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.DisbursementRejected {
		t.Errorf("expected status to stay rejected, got %q", got.Status)
	}
}

func TestApprovalQuorum(t *testing.T) {
	cases := []struct {
		trustees int
		want     int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{10, 2},
	}
	for _, tc := range cases {
		if got := models.ApprovalQuorum(tc.trustees); got != tc.want {
			t.Errorf("ApprovalQuorum(%d) = %d, want %d", tc.trustees, got, tc.want)
		}
	}
}
