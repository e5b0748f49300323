// internal/app/store/transactions/txnstore.go
package txnstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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

var ErrDuplicateReference = errors.New("a transaction with this reference already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("transactions")}
}

// Record inserts a transaction. A fresh UUID reference is assigned when the
// caller did not supply one; supplying a reference lets callers make
// retried writes idempotent via the unique reference index.
func (s *Store) Record(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	t.ID = primitive.NewObjectID()
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = "completed"
	}
	t.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Transaction{}, ErrDuplicateReference
		}
		return models.Transaction{}, err
	}
	return t, nil
}

// ListForUser returns the user's transactions, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]models.Transaction, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Transaction
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	var t models.Transaction
	if err := s.c.FindOne(ctx, bson.M{"reference": reference}).Decode(&t); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}
