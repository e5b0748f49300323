package duesstore_test

import (
	"errors"
	"testing"
	"time"

	duesstore "github.com/kolohq/kolo/internal/app/store/dues"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_RecordPayment_OncePerMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := duesstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	due := fixtures.CreateDue(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"August security levy", 200000, time.Now().UTC().Add(7*24*time.Hour))
	userID := primitive.NewObjectID()

	payment, err := store.RecordPayment(ctx, due.ID, userID, due.Amount)
	if err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	if payment.AmountPaid != 200000 {
		t.Errorf("amount_paid = %d, want 200000", payment.AmountPaid)
	}

	_, err = store.RecordPayment(ctx, due.ID, userID, due.Amount)
	if !errors.Is(err, duesstore.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestStore_PaymentsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := duesstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groupID := primitive.NewObjectID()
	createdBy := primitive.NewObjectID()
	dueA := fixtures.CreateDue(ctx, groupID, createdBy, "Levy A", 100000, time.Now().UTC())
	dueB := fixtures.CreateDue(ctx, groupID, createdBy, "Levy B", 150000, time.Now().UTC())
	userID := primitive.NewObjectID()

	if _, err := store.RecordPayment(ctx, dueA.ID, userID, dueA.Amount); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}

	paid, err := store.PaymentsForUser(ctx, []primitive.ObjectID{dueA.ID, dueB.ID}, userID)
	if err != nil {
		t.Fatalf("PaymentsForUser failed: %v", err)
	}
	if _, ok := paid[dueA.ID]; !ok {
		t.Error("expected a payment for due A")
	}
	if _, ok := paid[dueB.ID]; ok {
		t.Error("unexpected payment for due B")
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		paid bool
		want string
	}{
		{"paid before deadline", now.Add(24 * time.Hour), true, models.DuePaid},
		{"paid after deadline", now.Add(-24 * time.Hour), true, models.DuePaid},
		{"unpaid before deadline", now.Add(24 * time.Hour), false, models.DueUnpaid},
		{"unpaid past deadline", now.Add(-24 * time.Hour), false, models.DueOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := models.Due{DueDate: tc.due}
			if got := duesstore.DeriveStatus(d, tc.paid, now); got != tc.want {
				t.Errorf("DeriveStatus = %q, want %q", got, tc.want)
			}
		})
	}
}
