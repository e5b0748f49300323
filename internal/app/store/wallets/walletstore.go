// internal/app/store/wallets/walletstore.go
package walletstore

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
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("wallets")}
}

// EnsureFor creates the user's main wallet if missing and returns it.
func (s *Store) EnsureFor(ctx context.Context, userID primitive.ObjectID, currency string) (models.Wallet, error) {
	now := time.Now().UTC()
	var w models.Wallet
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "wallet_type": "main"},
		bson.M{
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"user_id":    userID,
				"balance":    int64(0),
				"currency":   currency,
				"created_at": now,
				"updated_at": now,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&w)
	if err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
	var w models.Wallet
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "wallet_type": "main"}).Decode(&w); err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

// Credit adds amount to the wallet balance and returns the updated wallet.
func (s *Store) Credit(ctx context.Context, walletID primitive.ObjectID, amount int64) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, ErrAmountNotPositive
	}
	var w models.Wallet
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": walletID},
		bson.M{
			"$inc": bson.M{"balance": amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&w)
	if err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

// Debit subtracts amount from the wallet balance. The balance guard is part
// of the update filter, so a concurrent debit can never overdraw.
func (s *Store) Debit(ctx context.Context, walletID primitive.ObjectID, amount int64) (models.Wallet, error) {
	if amount <= 0 {
		return models.Wallet{}, ErrAmountNotPositive
	}
	var w models.Wallet
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": walletID, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"balance": -amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish "no such wallet" from "not enough balance".
		if cErr := s.c.FindOne(ctx, bson.M{"_id": walletID}).Err(); cErr == nil {
			return models.Wallet{}, ErrInsufficientFunds
		}
		return models.Wallet{}, err
	}
	if err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}
