// internal/app/store/dues/duesstore.go
package duesstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	dues     *mongo.Collection
	payments *mongo.Collection
}

var ErrAlreadyPaid = errors.New("this due has already been paid")

func New(db *mongo.Database) *Store {
	return &Store{
		dues:     db.Collection("dues"),
		payments: db.Collection("dues_payments"),
	}
}

func (s *Store) Create(ctx context.Context, d models.Due) (models.Due, error) {
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now().UTC()
	if _, err := s.dues.InsertOne(ctx, d); err != nil {
		return models.Due{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Due, error) {
	var d models.Due
	if err := s.dues.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Due{}, err
	}
	return d, nil
}

// ListByGroup returns the group's dues, most recent due date first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.Due, error) {
	cur, err := s.dues.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().
			SetSort(bson.D{{Key: "due_date", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Due
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment inserts one member's payment of one due. The unique
// (due_id, user_id) index makes double payment impossible.
func (s *Store) RecordPayment(ctx context.Context, dueID, userID primitive.ObjectID, amount int64) (models.DuesPayment, error) {
	p := models.DuesPayment{
		ID:         primitive.NewObjectID(),
		DueID:      dueID,
		UserID:     userID,
		AmountPaid: amount,
		PaidAt:     time.Now().UTC(),
	}
	if _, err := s.payments.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.DuesPayment{}, ErrAlreadyPaid
		}
		return models.DuesPayment{}, err
	}
	return p, nil
}

// PaymentsForUser returns the user's payments keyed by due ID, for the
// given dues.
func (s *Store) PaymentsForUser(ctx context.Context, dueIDs []primitive.ObjectID, userID primitive.ObjectID) (map[primitive.ObjectID]models.DuesPayment, error) {
	out := make(map[primitive.ObjectID]models.DuesPayment, len(dueIDs))
	if len(dueIDs) == 0 {
		return out, nil
	}
	cur, err := s.payments.Find(ctx, bson.M{
		"due_id":  bson.M{"$in": dueIDs},
		"user_id": userID,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.DuesPayment
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.DueID] = p
	}
	return out, cur.Err()
}

// PaymentsForDue returns every payment of one due, for treasurer views.
func (s *Store) PaymentsForDue(ctx context.Context, dueID primitive.ObjectID) ([]models.DuesPayment, error) {
	cur, err := s.payments.Find(ctx,
		bson.M{"due_id": dueID},
		options.Find().SetSort(bson.D{{Key: "paid_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DuesPayment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveStatus computes the member-facing status of a due: paid if the
// member has a payment, overdue if unpaid past the due date, unpaid
// otherwise.
func DeriveStatus(d models.Due, paid bool, now time.Time) string {
	if paid {
		return models.DuePaid
	}
	if now.After(d.DueDate) {
		return models.DueOverdue
	}
	return models.DueUnpaid
}
