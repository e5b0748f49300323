// internal/domain/models/poll.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Poll status values.
const (
	PollActive = "active"
	PollClosed = "closed"
)

// Poll option count limits enforced at creation.
const (
	PollMinOptions = 2
	PollMaxOptions = 5
)

// PollOption is one choice within a poll. Options keep their creation
// order; VoteCount only grows.
type PollOption struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	VoteCount int64              `bson:"vote_count"`
}

// Poll is a community vote. Invariant: TotalVotes equals the sum of the
// option vote counts; both are incremented together in a single update.
type Poll struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	GroupID     primitive.ObjectID `bson:"group_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Options     []PollOption       `bson:"options"`
	TotalVotes  int64              `bson:"total_votes"`
	Status      string             `bson:"status"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	CreatedAt   time.Time          `bson:"created_at"`
	EndsAt      time.Time          `bson:"ends_at"`
}

// PollVote records that a user voted on a poll. The unique index on
// (poll_id, user_id) is the server-side one-vote-per-user guarantee.
type PollVote struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	PollID   primitive.ObjectID `bson:"poll_id"`
	UserID   primitive.ObjectID `bson:"user_id"`
	OptionID primitive.ObjectID `bson:"option_id"`
	CastAt   time.Time          `bson:"cast_at"`
}
