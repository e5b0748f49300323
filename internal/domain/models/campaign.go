// internal/domain/models/campaign.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign is a crowdfunding effort with a monetary goal and running total.
// CurrentAmount only ever grows, via atomic increments on contribution.
type Campaign struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	TitleCI       string             `bson:"title_ci"`
	Description   string             `bson:"description"`
	TargetAmount  int64              `bson:"target_amount"`
	CurrentAmount int64              `bson:"current_amount"`
	Category      string             `bson:"category"`
	Status        string             `bson:"status"` // "active" or "closed"
	EndDate       *time.Time         `bson:"end_date,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty"`
	CreatedBy     primitive.ObjectID `bson:"created_by"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}
