// internal/app/store/ajo/ajostore.go
package ajostore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	groups      *mongo.Collection
	memberships *mongo.Collection
}

var (
	ErrGroupFull     = errors.New("ajo group is full or no longer open")
	ErrAlreadyJoined = errors.New("user has already joined this ajo group")
	ErrNotMember     = errors.New("user is not a member of this ajo group")
)

func New(db *mongo.Database) *Store {
	return &Store{
		groups:      db.Collection("ajo_groups"),
		memberships: db.Collection("ajo_memberships"),
	}
}

// Create inserts the ajo group and gives the creator seat 1.
func (s *Store) Create(ctx context.Context, g models.AjoGroup) (models.AjoGroup, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Status = models.AjoOpen
	g.CurrentMembers = 1
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.groups.InsertOne(ctx, g); err != nil {
		return models.AjoGroup{}, err
	}
	_, err := s.memberships.InsertOne(ctx, models.AjoMembership{
		ID:       primitive.NewObjectID(),
		GroupID:  g.ID,
		UserID:   g.CreatedBy,
		Position: 1,
		Status:   "active",
		JoinedAt: now,
	})
	if err != nil {
		return models.AjoGroup{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AjoGroup, error) {
	var g models.AjoGroup
	if err := s.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.AjoGroup{}, err
	}
	return g, nil
}

// ListOpen returns joinable groups, newest first.
func (s *Store) ListOpen(ctx context.Context, limit, offset int64) ([]models.AjoGroup, error) {
	return s.list(ctx, bson.M{"status": models.AjoOpen}, limit, offset)
}

// ListForUser returns the ajo groups the user has a seat in.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.AjoGroup, error) {
	cur, err := s.memberships.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.AjoMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.GroupID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.list(ctx, bson.M{"_id": bson.M{"$in": ids}}, int64(len(ids)), 0)
}

func (s *Store) list(ctx context.Context, filter bson.M, limit, offset int64) ([]models.AjoGroup, error) {
	cur, err := s.groups.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AjoGroup
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Join claims a seat in an open group. The seat count guard lives in the
// update filter so concurrent joins cannot oversubscribe the group; the
// unique (group_id, user_id) index rejects double joins.
func (s *Store) Join(ctx context.Context, groupID, userID primitive.ObjectID) (models.AjoMembership, error) {
	var g models.AjoGroup
	err := s.groups.FindOneAndUpdate(ctx,
		bson.M{
			"_id":    groupID,
			"status": models.AjoOpen,
			"$expr":  bson.M{"$lt": bson.A{"$current_members", "$max_members"}},
		},
		bson.M{
			"$inc": bson.M{"current_members": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AjoMembership{}, ErrGroupFull
	}
	if err != nil {
		return models.AjoMembership{}, err
	}

	m := models.AjoMembership{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Position: g.CurrentMembers,
		Status:   "active",
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.memberships.InsertOne(ctx, m); err != nil {
		// Give the seat back before reporting the duplicate.
		_, _ = s.groups.UpdateByID(ctx, groupID, bson.M{"$inc": bson.M{"current_members": -1}})
		if wafflemongo.IsDup(err) {
			return models.AjoMembership{}, ErrAlreadyJoined
		}
		return models.AjoMembership{}, err
	}
	return m, nil
}

// GetMembership returns the caller's seat in the group, or ErrNotMember.
func (s *Store) GetMembership(ctx context.Context, groupID, userID primitive.ObjectID) (models.AjoMembership, error) {
	var m models.AjoMembership
	err := s.memberships.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AjoMembership{}, ErrNotMember
	}
	if err != nil {
		return models.AjoMembership{}, err
	}
	return m, nil
}

// Memberships lists the group's seats in payout order.
func (s *Store) Memberships(ctx context.Context, groupID primitive.ObjectID) ([]models.AjoMembership, error) {
	cur, err := s.memberships.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AjoMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddContribution records a member's contribution against their seat.
func (s *Store) AddContribution(ctx context.Context, groupID, userID primitive.ObjectID, amount int64) error {
	res, err := s.memberships.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$inc": bson.M{"total_contributed": amount}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// Activate flips a full group from open to active and sets the schedule
// dates. Only the creator calls this, once the group is full.
func (s *Store) Activate(ctx context.Context, groupID primitive.ObjectID, start, nextPayout time.Time) error {
	res, err := s.groups.UpdateOne(ctx,
		bson.M{"_id": groupID, "status": models.AjoOpen},
		bson.M{"$set": bson.M{
			"status":           models.AjoActive,
			"start_date":       start,
			"next_payout_date": nextPayout,
			"updated_at":       time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkPayoutReceived flags the seat at the given position as paid out.
func (s *Store) MarkPayoutReceived(ctx context.Context, groupID primitive.ObjectID, position int) error {
	res, err := s.memberships.UpdateOne(ctx,
		bson.M{"group_id": groupID, "position": position, "payout_received": false},
		bson.M{"$set": bson.M{"payout_received": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
