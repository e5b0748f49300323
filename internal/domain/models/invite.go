// internal/domain/models/invite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
)

// Invite is a shareable code that admits a user into a group.
type Invite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	GroupID   primitive.ObjectID `bson:"group_id"`
	Code      string             `bson:"code"` // UUID, unique
	Email     string             `bson:"email,omitempty"`
	InvitedBy primitive.ObjectID `bson:"invited_by"`
	Status    string             `bson:"status"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}
