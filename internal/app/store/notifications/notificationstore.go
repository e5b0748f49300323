// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sender is the notification sink handlers depend on. Features take this
// interface rather than the concrete store so tests can capture
// notifications without a database.
type Sender interface {
	Send(ctx context.Context, userID primitive.ObjectID, kind, title, body string) error
	SendMany(ctx context.Context, userIDs []primitive.ObjectID, kind, title, body string) error
}

type Store struct {
	c *mongo.Collection
}

var _ Sender = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

func (s *Store) Send(ctx context.Context, userID primitive.ObjectID, kind, title, body string) error {
	_, err := s.c.InsertOne(ctx, models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Kind:      kind,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// SendMany fans one notification out to several users. Used for group
// announcements; a failure mid-fanout returns the first error.
func (s *Store) SendMany(ctx context.Context, userIDs []primitive.ObjectID, kind, title, body string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(userIDs))
	for _, id := range userIDs {
		docs = append(docs, models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    id,
			Title:     title,
			Body:      body,
			Kind:      kind,
			CreatedAt: now,
		})
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListForUser returns the user's notifications, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]models.Notification, error) {
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

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns how many unread notifications the user has.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks one notification read. Scoped to the owner so a user
// cannot mark another user's notification.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
