// internal/app/store/groups/groupstore.go
package groupstore

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

// Store covers community groups and their membership rows. The two
// collections travel together because every membership operation needs the
// group for context.
type Store struct {
	groups  *mongo.Collection
	members *mongo.Collection
}

var (
	ErrAlreadyMember = errors.New("user is already a member of this group")
	ErrNotMember     = errors.New("user is not a member of this group")
)

func New(db *mongo.Database) *Store {
	return &Store{
		groups:  db.Collection("groups"),
		members: db.Collection("group_members"),
	}
}

// Create inserts the group and enrolls the creator as group admin.
func (s *Store) Create(ctx context.Context, g models.Group, creatorName string) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Status = "active"
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.groups.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	_, err := s.members.InsertOne(ctx, models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  g.ID,
		UserID:   g.CreatedBy,
		Name:     creatorName,
		Role:     models.GroupRoleAdmin,
		JoinedAt: now,
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ListForUser returns the groups the user belongs to, newest membership
// first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	cur, err := s.members.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMember
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	gcur, err := s.groups.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer gcur.Close(ctx)

	byID := make(map[primitive.ObjectID]models.Group, len(ids))
	for gcur.Next(ctx) {
		var g models.Group
		if err := gcur.Decode(&g); err != nil {
			return nil, err
		}
		byID[g.ID] = g
	}
	if err := gcur.Err(); err != nil {
		return nil, err
	}

	// Preserve membership order.
	out := make([]models.Group, 0, len(memberships))
	for _, m := range memberships {
		if g, ok := byID[m.GroupID]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// AddMember enrolls a user in the group with the given role.
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID, name, role string) (models.GroupMember, error) {
	m := models.GroupMember{
		ID:       primitive.NewObjectID(),
		GroupID:  groupID,
		UserID:   userID,
		Name:     name,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.members.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMember{}, ErrAlreadyMember
		}
		return models.GroupMember{}, err
	}
	return m, nil
}

// GetMember returns the membership row for a user in a group, or
// ErrNotMember.
func (s *Store) GetMember(ctx context.Context, groupID, userID primitive.ObjectID) (models.GroupMember, error) {
	var m models.GroupMember
	err := s.members.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.GroupMember{}, ErrNotMember
	}
	if err != nil {
		return models.GroupMember{}, err
	}
	return m, nil
}

// Members lists the group's membership rows, trustees and admins first.
func (s *Store) Members(ctx context.Context, groupID primitive.ObjectID) ([]models.GroupMember, error) {
	cur, err := s.members.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().SetSort(bson.D{
			{Key: "role", Value: 1},
			{Key: "joined_at", Value: 1},
		}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GroupMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMemberRole changes a member's group-level role.
func (s *Store) SetMemberRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	res, err := s.members.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// CountTrustees counts members who may decide disbursements (trustees and
// group admins).
func (s *Store) CountTrustees(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.members.CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"role":     bson.M{"$in": bson.A{models.GroupRoleTrustee, models.GroupRoleAdmin}},
	})
}

// MemberIDs returns the user IDs of every member of the group.
func (s *Store) MemberIDs(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.members.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.GroupMember
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m.UserID)
	}
	return out, cur.Err()
}
