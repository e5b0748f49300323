// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrInviteNotPending = errors.New("invite has already been used or expired")
	ErrInviteExpired    = errors.New("invite has expired")
)

// DefaultTTL is how long an invite stays redeemable.
const DefaultTTL = 7 * 24 * time.Hour

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invites")}
}

// Create mints a new invite code for the group.
func (s *Store) Create(ctx context.Context, groupID, invitedBy primitive.ObjectID, email string, ttl time.Duration) (models.Invite, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	inv := models.Invite{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Code:      uuid.NewString(),
		Email:     email,
		InvitedBy: invitedBy,
		Status:    models.InvitePending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (models.Invite, error) {
	var inv models.Invite
	if err := s.c.FindOne(ctx, bson.M{"code": code}).Decode(&inv); err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

// Redeem marks a pending, unexpired invite accepted and returns it. The
// status and expiry guards are in the filter, so a code can be redeemed
// exactly once.
func (s *Store) Redeem(ctx context.Context, code string) (models.Invite, error) {
	now := time.Now().UTC()
	var inv models.Invite
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"code":       code,
			"status":     models.InvitePending,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"status": models.InviteAccepted}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, readErr := s.GetByCode(ctx, code)
		if readErr != nil {
			return models.Invite{}, readErr
		}
		if cur.Status == models.InvitePending && now.After(cur.ExpiresAt) {
			return models.Invite{}, ErrInviteExpired
		}
		return models.Invite{}, ErrInviteNotPending
	}
	if err != nil {
		return models.Invite{}, err
	}
	return inv, nil
}

// ListByGroup returns the group's invites, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.Invite, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invite
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
