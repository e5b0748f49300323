// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/kolohq/kolo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateEmail = errors.New("an account with this email already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by the case-folded email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user, defaulting role "member" and status "active".
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.EmailCI = text.Fold(u.Email)
	if u.Role == "" {
		u.Role = "member"
	}
	if u.Status == "" {
		u.Status = "active"
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// LinkGoogleID attaches a Google account to an existing user.
func (s *Store) LinkGoogleID(ctx context.Context, id primitive.ObjectID, googleID string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"google_id":  googleID,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// NamesByIDs returns full names for the given user IDs.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u.FullName
	}
	return out, cur.Err()
}
