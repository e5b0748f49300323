// internal/domain/models/due.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member-facing due status. Derived from payments and the due date,
// never stored on the Due record.
const (
	DuePaid    = "paid"
	DueUnpaid  = "unpaid"
	DueOverdue = "overdue"
)

// Due is a payment obligation owed by every member of a group.
type Due struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	GroupID     primitive.ObjectID `bson:"group_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Amount      int64              `bson:"amount"`
	DueDate     time.Time          `bson:"due_date"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	CreatedAt   time.Time          `bson:"created_at"`
}

// DuesPayment records one member's payment of one due.
// Unique per (due_id, user_id).
type DuesPayment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	DueID      primitive.ObjectID `bson:"due_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	AmountPaid int64              `bson:"amount_paid"`
	PaidAt     time.Time          `bson:"paid_at"`
}
