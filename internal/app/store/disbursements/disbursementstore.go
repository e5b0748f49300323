// internal/app/store/disbursements/disbursementstore.go
package disbursementstore

import (
	"context"
	"errors"
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

var (
	ErrNotPending      = errors.New("disbursement is no longer pending")
	ErrAlreadyApproved = errors.New("trustee has already approved this disbursement")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("disbursements")}
}

func (s *Store) Create(ctx context.Context, d models.Disbursement) (models.Disbursement, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Status = models.DisbursementPending
	d.Approvals = []primitive.ObjectID{}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Disbursement{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Disbursement, error) {
	var d models.Disbursement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Disbursement{}, err
	}
	return d, nil
}

// ListByGroup returns the group's disbursements, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.Disbursement, error) {
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

	var out []models.Disbursement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddApproval records one trustee's approval. The filter demands a pending
// request the actor has not yet approved, and $addToSet appends their vote,
// all in one round trip. A repeat approval or a decided request matches
// nothing; the follow-up read tells the two apart. Returns the document
// after the approval lands.
func (s *Store) AddApproval(ctx context.Context, id, actor primitive.ObjectID) (models.Disbursement, error) {
	var d models.Disbursement
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":       id,
			"status":    models.DisbursementPending,
			"approvals": bson.M{"$ne": actor},
		},
		bson.M{
			"$addToSet": bson.M{"approvals": actor},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, readErr := s.GetByID(ctx, id)
		if readErr != nil {
			return models.Disbursement{}, readErr
		}
		if cur.Status != models.DisbursementPending {
			return models.Disbursement{}, ErrNotPending
		}
		return models.Disbursement{}, ErrAlreadyApproved
	}
	if err != nil {
		return models.Disbursement{}, err
	}
	return d, nil
}

// MarkApproved flips a pending request to approved once the quorum is met.
// The status guard keeps a concurrent rejection from being overwritten;
// losing the race is not an error, the request was decided either way.
func (s *Store) MarkApproved(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.DisbursementPending},
		bson.M{"$set": bson.M{
			"status":     models.DisbursementApproved,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Reject vetoes a pending request. A single rejection is terminal no
// matter how many approvals have accumulated.
func (s *Store) Reject(ctx context.Context, id, actor primitive.ObjectID) (models.Disbursement, error) {
	var d models.Disbursement
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.DisbursementPending},
		bson.M{"$set": bson.M{
			"status":      models.DisbursementRejected,
			"rejected_by": actor,
			"updated_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, readErr := s.GetByID(ctx, id); readErr != nil {
			return models.Disbursement{}, readErr
		}
		return models.Disbursement{}, ErrNotPending
	}
	if err != nil {
		return models.Disbursement{}, err
	}
	return d, nil
}
