// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	NotifyGovernance = "governance"
	NotifyPayment    = "payment"
	NotifyKYC        = "kyc"
	NotifyInvite     = "invite"
)

// Notification is a per-user message surfaced in the client's dropdown.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body,omitempty"`
	Kind      string             `bson:"kind"`
	Read      bool               `bson:"read"`
	CreatedAt time.Time          `bson:"created_at"`
}
