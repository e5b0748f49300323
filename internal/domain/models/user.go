// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account holder. Email is the login identifier; EmailCI holds
// the case-folded form backing the unique index.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"full_name"`
	FullNameCI   string             `bson:"full_name_ci"`
	Email        string             `bson:"email"`
	EmailCI      string             `bson:"email_ci"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	GoogleID     string             `bson:"google_id,omitempty"`

	// Role is the platform-wide role: "member" or "admin".
	// Group-level roles (member/trustee/admin) live on GroupMember.
	Role   string `bson:"role"`
	Status string `bson:"status"` // "active" or "disabled"

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
