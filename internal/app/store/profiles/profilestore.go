// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"time"

	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// EnsureFor creates an empty profile for the user if none exists and
// returns the current profile either way.
func (s *Store) EnsureFor(ctx context.Context, userID primitive.ObjectID) (models.Profile, error) {
	now := time.Now().UTC()
	var p models.Profile
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"user_id":    userID,
				"kyc_status": models.KYCUnverified,
				"created_at": now,
			},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Update overwrites the user-editable profile fields.
func (s *Store) Update(ctx context.Context, userID primitive.ObjectID, phone, dateOfBirth, address string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"phone_number":  phone,
		"date_of_birth": dateOfBirth,
		"address":       address,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// SubmitKYC moves the profile into the pending KYC state with the supplied
// document reference. Only unverified or rejected profiles may resubmit.
func (s *Store) SubmitKYC(ctx context.Context, userID primitive.ObjectID, docType, docRef string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"user_id":    userID,
			"kyc_status": bson.M{"$in": bson.A{models.KYCUnverified, models.KYCRejected}},
		},
		bson.M{"$set": bson.M{
			"kyc_status":   models.KYCPending,
			"kyc_doc_type": docType,
			"kyc_doc_ref":  docRef,
			"updated_at":   time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DecideKYC resolves a pending KYC submission to verified or rejected.
func (s *Store) DecideKYC(ctx context.Context, userID primitive.ObjectID, status string, reviewer primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "kyc_status": models.KYCPending},
		bson.M{"$set": bson.M{
			"kyc_status":      status,
			"kyc_reviewed_by": reviewer,
			"kyc_reviewed_at": time.Now().UTC(),
			"updated_at":      time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListPendingKYC returns profiles awaiting review, oldest first.
func (s *Store) ListPendingKYC(ctx context.Context, limit, offset int64) ([]models.Profile, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"kyc_status": models.KYCPending},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: 1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
