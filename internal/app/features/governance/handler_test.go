package governance_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kolohq/kolo/internal/app/features/governance"
	"github.com/kolohq/kolo/internal/app/policy/grouppolicy"
	auditstore "github.com/kolohq/kolo/internal/app/store/audit"
	groupstore "github.com/kolohq/kolo/internal/app/store/groups"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	pollstore "github.com/kolohq/kolo/internal/app/store/polls"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*governance.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{})
	policy := grouppolicy.New(groupstore.New(db))
	notify := notificationstore.New(db)
	return governance.NewHandler(db, audit, policy, notify, logger), db
}

func TestServeApprove_TwoTrusteesReachQuorum(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada Obi", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Umuola Union", creator.ID)

	trusteeA := fixtures.CreateMember(ctx, "Bisi Ade", "bisi@example.com")
	trusteeB := fixtures.CreateMember(ctx, "Chike Eze", "chike@example.com")
	fixtures.AddTrustee(ctx, group.ID, trusteeA.ID, trusteeA.FullName)
	fixtures.AddTrustee(ctx, group.ID, trusteeB.ID, trusteeB.FullName)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Hall repairs", 300000)

	// First trustee approves; still pending.
	req := testutil.NewAuthenticatedRequest(http.MethodPost,
		"/disbursements/"+d.ID.Hex()+"/approve",
		testutil.UserFor(trusteeA.ID, trusteeA.FullName, trusteeA.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"pending"`)

	// Second trustee approves; quorum of 2 is reached.
	req = testutil.NewAuthenticatedRequest(http.MethodPost,
		"/disbursements/"+d.ID.Hex()+"/approve",
		testutil.UserFor(trusteeB.ID, trusteeB.FullName, trusteeB.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"approved"`)

	// Every step landed in the audit trail.
	entries, err := auditstore.New(db).ListByGroup(ctx, group.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(entries) < 3 {
		t.Errorf("expected at least 3 audit entries (2 approvals + quorum), got %d", len(entries))
	}
}

func TestServeApprove_SameTrusteeTwice(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)
	trustee := fixtures.CreateMember(ctx, "Bisi", "bisi@example.com")
	fixtures.AddTrustee(ctx, group.ID, trustee.ID, trustee.FullName)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Fuel", 50000)
	user := testutil.UserFor(trustee.ID, trustee.FullName, trustee.Email, "member")

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/x", user)
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/x", user)
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeApprove_NonTrustee(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)
	member := fixtures.CreateMember(ctx, "Plain", "plain@example.com")
	fixtures.AddGroupMember(ctx, group.ID, member.ID, member.FullName, models.GroupRoleMember)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Road grading", 700000)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/x",
		testutil.UserFor(member.ID, member.FullName, member.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeReject_SingleVeto(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)
	trusteeA := fixtures.CreateMember(ctx, "Bisi", "bisi@example.com")
	trusteeB := fixtures.CreateMember(ctx, "Chike", "chike@example.com")
	fixtures.AddTrustee(ctx, group.ID, trusteeA.ID, trusteeA.FullName)
	fixtures.AddTrustee(ctx, group.ID, trusteeB.ID, trusteeB.FullName)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Disputed payout", 900000)

	// One approval first; the veto still terminates the request.
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/x",
		testutil.UserFor(trusteeA.ID, trusteeA.FullName, trusteeA.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/x",
		testutil.UserFor(trusteeB.ID, trusteeB.FullName, trusteeB.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeReject(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":"rejected"`)

	// Approving after the veto reports conflict.
	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/x",
		testutil.UserFor(trusteeA.ID, trusteeA.FullName, trusteeA.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeApprove_CommentLandsInAuditTrail(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)
	trusteeA := fixtures.CreateMember(ctx, "Bisi", "bisi@example.com")
	trusteeB := fixtures.CreateMember(ctx, "Chike", "chike@example.com")
	fixtures.AddTrustee(ctx, group.ID, trusteeA.ID, trusteeA.FullName)
	fixtures.AddTrustee(ctx, group.ID, trusteeB.ID, trusteeB.FullName)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Generator servicing", 150000)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/x",
		map[string]any{"comment": "Receipts attached"},
		testutil.UserFor(trusteeA.ID, trusteeA.FullName, trusteeA.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/x",
		map[string]any{"comment": "Quote looks inflated"},
		testutil.UserFor(trusteeB.ID, trusteeB.FullName, trusteeB.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeReject(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	entries, err := auditstore.New(db).ListByGroup(ctx, group.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	var sawApprove, sawReject bool
	for _, e := range entries {
		if strings.Contains(e.Activity, "Receipts attached") {
			sawApprove = true
		}
		if strings.Contains(e.Activity, "Quote looks inflated") {
			sawReject = true
		}
	}
	if !sawApprove {
		t.Error("approval comment missing from the audit trail")
	}
	if !sawReject {
		t.Error("rejection comment missing from the audit trail")
	}
}

func TestServeApprove_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewRequest(http.MethodPost, "/x")
	req = testutil.WithChiURLParam(req, "disbursementID", primitive.NewObjectID().Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeState_AggregatesDashboard(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada Obi", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Umuola Union", creator.ID)
	trustee := fixtures.CreateMember(ctx, "Bisi Ade", "bisi@example.com")
	fixtures.AddTrustee(ctx, group.ID, trustee.ID, trustee.FullName)

	d := fixtures.CreateDisbursement(ctx, group.ID, creator.ID, "Hall repairs", 300000)
	fixtures.CreatePoll(ctx, group.ID, creator.ID, "Meeting day", []string{"Saturday", "Sunday"})

	// An approval first, so the trail has something to show.
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/x",
		testutil.UserFor(trustee.ID, trustee.FullName, trustee.Email, "member"))
	req = testutil.WithChiURLParam(req, "disbursementID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeApprove(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest(http.MethodGet,
		"/groups/"+group.ID.Hex()+"/governance",
		testutil.UserFor(creator.ID, creator.FullName, creator.Email, "member"))
	req = testutil.WithChiURLParam(req, "groupID", group.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeState(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	// The aggregate carries the roster with roles.
	rec.AssertContains(t, `"members":`)
	rec.AssertContains(t, `"user_id":"`+trustee.ID.Hex()+`"`)
	rec.AssertContains(t, `"role":"trustee"`)
	// And the recent audit entries.
	rec.AssertContains(t, `"audit_logs":`)
	rec.AssertContains(t, "approved disbursement")
	// Alongside the previews that were already there.
	rec.AssertContains(t, `"disbursements":`)
	rec.AssertContains(t, `"title":"Meeting day"`)
	rec.AssertContains(t, `"quorum":2`)
}

func TestServeCreatePoll_DefaultsEndTime(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)

	// No ends_at in the request; the poll still opens, ending a week out.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/x",
		map[string]any{
			"title":       "Next meeting day",
			"description": "Pick one",
			"options":     []string{"Saturday", "Sunday", "Monday"},
		},
		testutil.UserFor(creator.ID, creator.FullName, creator.Email, "member"))
	req = testutil.WithChiURLParam(req, "groupID", group.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeCreatePoll(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"status":"active"`)

	polls, err := pollstore.New(db).ListByGroup(ctx, group.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(polls) != 1 {
		t.Fatalf("polls stored = %d, want 1", len(polls))
	}
	until := time.Until(polls[0].EndsAt)
	if until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Errorf("default ends_at is %s away, want about 7 days", until)
	}
}

func TestServeCreatePoll_HonorsExplicitEndTime(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateMember(ctx, "Ada", "ada@example.com")
	group := fixtures.CreateGroup(ctx, "Union", creator.ID)

	endsAt := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/x",
		map[string]any{
			"title":       "Short poll",
			"description": "Two days only",
			"options":     []string{"Yes", "No"},
			"ends_at":     endsAt.Format(time.RFC3339),
		},
		testutil.UserFor(creator.ID, creator.FullName, creator.Email, "member"))
	req = testutil.WithChiURLParam(req, "groupID", group.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeCreatePoll(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)

	polls, err := pollstore.New(db).ListByGroup(ctx, group.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(polls) != 1 {
		t.Fatalf("polls stored = %d, want 1", len(polls))
	}
	if !polls[0].EndsAt.Equal(endsAt) {
		t.Errorf("ends_at = %s, want %s", polls[0].EndsAt, endsAt)
	}
}
