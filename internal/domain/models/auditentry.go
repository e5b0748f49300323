// internal/domain/models/auditentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry is one line in a group's append-only governance record.
// Entries are created once per governance action and never mutated or
// deleted.
type AuditEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	GroupID   primitive.ObjectID `bson:"group_id"`
	Activity  string             `bson:"activity"`
	UserID    primitive.ObjectID `bson:"user_id"` // actor
	CreatedAt time.Time          `bson:"created_at"`
}
