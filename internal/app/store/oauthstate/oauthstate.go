// internal/app/store/oauthstate/oauthstate.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is an OAuth2 state token stored for CSRF protection during the
// Google sign-in round trip.
type State struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token with the given expiration time.
func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Validate consumes a state token. If it exists and has not expired, the
// token is deleted (one-time use) and the associated return URL comes
// back with valid=true.
func (s *Store) Validate(ctx context.Context, state string) (returnURL string, valid bool, err error) {
	var st State
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return st.ReturnURL, true, nil
}

// CleanupExpired removes expired state tokens. A backup for when TTL
// index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
