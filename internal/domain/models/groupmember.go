// internal/domain/models/groupmember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group-level roles. Trustees and group admins may decide disbursements.
const (
	GroupRoleMember  = "member"
	GroupRoleTrustee = "trustee"
	GroupRoleAdmin   = "admin"
)

// GroupMember links a user to a group with a group-level role.
// Unique per (group_id, user_id).
type GroupMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	GroupID  primitive.ObjectID `bson:"group_id"`
	UserID   primitive.ObjectID `bson:"user_id"`
	Name     string             `bson:"name"` // denormalized from the user's full name
	Role     string             `bson:"role"`
	JoinedAt time.Time          `bson:"joined_at"`
}
