// internal/domain/models/election.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Election phases.
const (
	ElectionNomination = "nomination"
	ElectionVoting     = "voting"
	ElectionClosed     = "closed"
)

// Each voter may support at most this many candidates per election.
const ElectionMaxChoices = 2

// Number of trustees seated when an election closes.
const ElectionSeats = 2

// ElectionCandidate is a group member standing (or eligible to stand) in a
// trustee election. Candidates keep their creation order; ties in the
// final ranking resolve by that order.
type ElectionCandidate struct {
	UserID    primitive.ObjectID `bson:"user_id"`
	Name      string             `bson:"name"`
	Nominated bool               `bson:"nominated"`
	Votes     int64              `bson:"votes"`
}

// Election is a trustee election for one group.
type Election struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	GroupID    primitive.ObjectID  `bson:"group_id"`
	Status     string              `bson:"status"`
	Candidates []ElectionCandidate `bson:"candidates"`
	CreatedBy  primitive.ObjectID  `bson:"created_by"`
	CreatedAt  time.Time           `bson:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at"`
}

// Ballot records one voter's selections. The unique index on
// (election_id, voter_id) forbids re-submission.
type Ballot struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	ElectionID primitive.ObjectID   `bson:"election_id"`
	VoterID    primitive.ObjectID   `bson:"voter_id"`
	Choices    []primitive.ObjectID `bson:"choices"`
	CastAt     time.Time            `bson:"cast_at"`
}
