// internal/domain/models/wallet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet holds a user's balance in minor currency units (kobo).
type Wallet struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     primitive.ObjectID `bson:"user_id"`
	Balance    int64              `bson:"balance"`
	Currency   string             `bson:"currency"`
	WalletType string             `bson:"wallet_type"` // "main" for now; savings types later
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}
