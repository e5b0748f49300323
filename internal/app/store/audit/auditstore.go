// internal/app/store/audit/auditstore.go
package auditstore

import (
	"context"
	"time"

	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only governance record. There is no update or
// delete on purpose.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_entries")}
}

func (s *Store) Append(ctx context.Context, groupID, userID primitive.ObjectID, activity string) (models.AuditEntry, error) {
	e := models.AuditEntry{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Activity:  activity,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.AuditEntry{}, err
	}
	return e, nil
}

// ListByGroup returns the group's audit trail, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.AuditEntry, error) {
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

	var out []models.AuditEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
