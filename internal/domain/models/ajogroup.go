// internal/domain/models/ajogroup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ajo group lifecycle.
const (
	AjoOpen      = "open"
	AjoActive    = "active"
	AjoCompleted = "completed"
)

// AjoGroup is a rotating savings group: members contribute a fixed amount
// on a schedule and take turns receiving the pooled payout.
type AjoGroup struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Name               string             `bson:"name"`
	NameCI             string             `bson:"name_ci"`
	Description        string             `bson:"description,omitempty"`
	ContributionAmount int64              `bson:"contribution_amount"`
	Frequency          string             `bson:"frequency"` // "weekly" or "monthly"
	MaxMembers         int                `bson:"max_members"`
	CurrentMembers     int                `bson:"current_members"`
	Status             string             `bson:"status"`
	StartDate          *time.Time         `bson:"start_date,omitempty"`
	NextPayoutDate     *time.Time         `bson:"next_payout_date,omitempty"`
	CreatedBy          primitive.ObjectID `bson:"created_by"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

// AjoMembership records a user's seat in an Ajo group. Position determines
// payout order. Unique per (group_id, user_id).
type AjoMembership struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	GroupID          primitive.ObjectID `bson:"group_id"`
	UserID           primitive.ObjectID `bson:"user_id"`
	Position         int                `bson:"position"`
	Status           string             `bson:"status"` // "active"
	TotalContributed int64              `bson:"total_contributed"`
	PayoutReceived   bool               `bson:"payout_received"`
	JoinedAt         time.Time          `bson:"joined_at"`
}
