// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KYC status values for Profile.KYCStatus.
const (
	KYCUnverified = "unverified"
	KYCPending    = "pending"
	KYCVerified   = "verified"
	KYCRejected   = "rejected"
)

// Profile carries the personal details and KYC state for one user.
// Exactly one profile exists per user (provisioned at sign-up).
type Profile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	PhoneNumber string             `bson:"phone_number,omitempty"`
	DateOfBirth string             `bson:"date_of_birth,omitempty"` // YYYY-MM-DD
	Address     string             `bson:"address,omitempty"`
	KYCStatus   string             `bson:"kyc_status"`
	KYCDocType  string             `bson:"kyc_doc_type,omitempty"` // "nin", "passport", "drivers_license"
	KYCDocRef   string             `bson:"kyc_doc_ref,omitempty"`

	KYCReviewedBy *primitive.ObjectID `bson:"kyc_reviewed_by,omitempty"`
	KYCReviewedAt *time.Time          `bson:"kyc_reviewed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
