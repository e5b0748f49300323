// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a community group: the scope for dues, disbursements, polls,
// elections, and the audit trail.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	NameCI      string             `bson:"name_ci"`
	Description string             `bson:"description,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	Status      string             `bson:"status"` // "active"
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}
