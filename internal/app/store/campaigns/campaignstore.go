// internal/app/store/campaigns/campaignstore.go
package campaignstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotActive = errors.New("campaign is not accepting contributions")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("campaigns")}
}

func (s *Store) Create(ctx context.Context, cp models.Campaign) (models.Campaign, error) {
	now := time.Now().UTC()
	cp.ID = primitive.NewObjectID()
	cp.TitleCI = text.Fold(cp.Title)
	cp.CurrentAmount = 0
	cp.Status = "active"
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, cp); err != nil {
		return models.Campaign{}, err
	}
	return cp, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Campaign, error) {
	var cp models.Campaign
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cp); err != nil {
		return models.Campaign{}, err
	}
	return cp, nil
}

// List returns campaigns newest first, optionally filtered by status and
// category.
func (s *Store) List(ctx context.Context, status, category string, limit, offset int64) ([]models.Campaign, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if category != "" {
		filter["category"] = category
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Campaign
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Contribute atomically adds amount to an active campaign's running total
// and returns the updated campaign. The status guard is part of the filter
// so contributions to a closed campaign never land.
func (s *Store) Contribute(ctx context.Context, id primitive.ObjectID, amount int64) (models.Campaign, error) {
	var cp models.Campaign
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": "active"},
		bson.M{
			"$inc": bson.M{"current_amount": amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Campaign{}, ErrNotActive
	}
	if err != nil {
		return models.Campaign{}, err
	}
	return cp, nil
}

// Close flips an active campaign to closed. Only the creator or a platform
// admin should reach this; the handler enforces that.
func (s *Store) Close(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": "active"},
		bson.M{"$set": bson.M{"status": "closed", "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotActive
	}
	return nil
}
