package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name, email, and platform role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateMember creates a test user with the member platform role.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member")
}

// CreateWallet creates a wallet for a user with the given balance in kobo.
func (f *Fixtures) CreateWallet(ctx context.Context, userID primitive.ObjectID, balance int64) models.Wallet {
	f.t.Helper()

	now := time.Now().UTC()
	wallet := models.Wallet{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		Balance:    balance,
		Currency:   "NGN",
		WalletType: "main",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("wallets").InsertOne(ctx, wallet)
	if err != nil {
		f.t.Fatalf("failed to create test wallet: %v", err)
	}

	return wallet
}

// CreateGroup creates a test group with the creator as group admin.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, creatorID primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		CreatedBy:   creatorID,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("groups").InsertOne(ctx, group)
	if err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	f.AddGroupMember(ctx, group.ID, creatorID, "Group Creator", models.GroupRoleAdmin)

	return group
}

// AddGroupMember adds a user to a group with the given group-level role.
func (f *Fixtures) AddGroupMember(ctx context.Context, groupID, userID primitive.ObjectID, name, role string) models.GroupMember {
	f.t.Helper()

	member := models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Name:     name,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("group_members").InsertOne(ctx, member)
	if err != nil {
		f.t.Fatalf("failed to create test group member: %v", err)
	}

	return member
}

// AddTrustee adds a user to a group with the trustee role.
func (f *Fixtures) AddTrustee(ctx context.Context, groupID, userID primitive.ObjectID, name string) models.GroupMember {
	f.t.Helper()
	return f.AddGroupMember(ctx, groupID, userID, name, models.GroupRoleTrustee)
}

// CreateDisbursement creates a pending disbursement request for a group.
func (f *Fixtures) CreateDisbursement(ctx context.Context, groupID, createdBy primitive.ObjectID, title string, amount int64) models.Disbursement {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Disbursement{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Title:     title,
		Amount:    amount,
		Status:    models.DisbursementPending,
		Approvals: []primitive.ObjectID{},
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("disbursements").InsertOne(ctx, d)
	if err != nil {
		f.t.Fatalf("failed to create test disbursement: %v", err)
	}

	return d
}

// CreatePoll creates an active poll with the given option texts, ending
// 24 hours from now.
func (f *Fixtures) CreatePoll(ctx context.Context, groupID, createdBy primitive.ObjectID, title string, optionTexts []string) models.Poll {
	f.t.Helper()

	now := time.Now().UTC()
	options := make([]models.PollOption, 0, len(optionTexts))
	for _, opt := range optionTexts {
		options = append(options, models.PollOption{
			ID:   primitive.NewObjectID(),
			Text: opt,
		})
	}
	poll := models.Poll{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Title:     title,
		Options:   options,
		Status:    models.PollActive,
		CreatedBy: createdBy,
		CreatedAt: now,
		EndsAt:    now.Add(24 * time.Hour),
	}

	_, err := f.db.Collection("polls").InsertOne(ctx, poll)
	if err != nil {
		f.t.Fatalf("failed to create test poll: %v", err)
	}

	return poll
}

// CreateElection creates an election in the given phase with the given
// candidate slate. Candidates are marked nominated.
func (f *Fixtures) CreateElection(ctx context.Context, groupID, createdBy primitive.ObjectID, status string, candidateIDs []primitive.ObjectID) models.Election {
	f.t.Helper()

	now := time.Now().UTC()
	candidates := make([]models.ElectionCandidate, 0, len(candidateIDs))
	for i, id := range candidateIDs {
		candidates = append(candidates, models.ElectionCandidate{
			UserID:    id,
			Name:      "Candidate " + string(rune('A'+i)),
			Nominated: true,
		})
	}
	e := models.Election{
		ID:         primitive.NewObjectID(),
		GroupID:    groupID,
		Status:     status,
		Candidates: candidates,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("elections").InsertOne(ctx, e)
	if err != nil {
		f.t.Fatalf("failed to create test election: %v", err)
	}

	return e
}

// CreateDue creates a due for a group with the given due date.
func (f *Fixtures) CreateDue(ctx context.Context, groupID, createdBy primitive.ObjectID, title string, amount int64, dueDate time.Time) models.Due {
	f.t.Helper()

	due := models.Due{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Title:     title,
		Amount:    amount,
		DueDate:   dueDate,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("dues").InsertOne(ctx, due)
	if err != nil {
		f.t.Fatalf("failed to create test due: %v", err)
	}

	return due
}

// CreateCampaign creates an active campaign.
func (f *Fixtures) CreateCampaign(ctx context.Context, createdBy primitive.ObjectID, title string, target int64) models.Campaign {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Campaign{
		ID:           primitive.NewObjectID(),
		Title:        title,
		TitleCI:      text.Fold(title),
		Description:  "Test campaign description",
		TargetAmount: target,
		Category:     "community",
		Status:       "active",
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("campaigns").InsertOne(ctx, c)
	if err != nil {
		f.t.Fatalf("failed to create test campaign: %v", err)
	}

	return c
}
