// internal/domain/models/disbursement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Disbursement status values. Approved and rejected are terminal.
const (
	DisbursementPending  = "pending"
	DisbursementApproved = "approved"
	DisbursementRejected = "rejected"
)

// Disbursement is a request to release group funds, requiring multi-party
// trustee approval. Status is a pure function of the approval set and any
// rejection: one rejection vetoes the request; approvals reaching the
// quorum min(2, trustee count) approve it. A trustee appears at most once
// in Approvals.
type Disbursement struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	GroupID   primitive.ObjectID   `bson:"group_id"`
	Title     string               `bson:"title"`
	Amount    int64                `bson:"amount"`
	Status    string               `bson:"status"`
	Approvals []primitive.ObjectID `bson:"approvals"`
	RejectedBy *primitive.ObjectID `bson:"rejected_by,omitempty"`
	CreatedBy primitive.ObjectID   `bson:"created_by"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// ApprovalQuorum returns the number of approvals needed to release funds:
// the lesser of 2 and the group's current trustee count.
func ApprovalQuorum(trusteeCount int) int {
	if trusteeCount < 2 {
		return trusteeCount
	}
	return 2
}
