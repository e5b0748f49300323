// internal/app/store/polls/pollstore.go
package pollstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	polls *mongo.Collection
	votes *mongo.Collection
}

var (
	ErrAlreadyVoted = errors.New("user has already voted on this poll")
	ErrPollClosed   = errors.New("poll is closed")
	ErrPollExpired  = errors.New("poll has ended")
	ErrNoSuchOption = errors.New("poll has no such option")
)

func New(db *mongo.Database) *Store {
	return &Store{
		polls: db.Collection("polls"),
		votes: db.Collection("poll_votes"),
	}
}

// Create inserts a poll with the given option texts. Option IDs are
// assigned here so votes can reference a stable ID rather than an index.
func (s *Store) Create(ctx context.Context, p models.Poll, optionTexts []string) (models.Poll, error) {
	p.ID = primitive.NewObjectID()
	p.Options = make([]models.PollOption, 0, len(optionTexts))
	for _, t := range optionTexts {
		p.Options = append(p.Options, models.PollOption{
			ID:   primitive.NewObjectID(),
			Text: t,
		})
	}
	p.TotalVotes = 0
	p.Status = models.PollActive
	p.CreatedAt = time.Now().UTC()
	if _, err := s.polls.InsertOne(ctx, p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var p models.Poll
	if err := s.polls.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// ListByGroup returns the group's polls, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.Poll, error) {
	cur, err := s.polls.Find(ctx,
		bson.M{"group_id": groupID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Poll
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CastVote records one user's vote. The vote row goes in first; its unique
// (poll_id, user_id) index is what stops double voting, regardless of how
// many requests race. Only after the row lands do the counters move, and
// the option count and total move together in a single update so they can
// never drift apart.
func (s *Store) CastVote(ctx context.Context, pollID, userID, optionID primitive.ObjectID) (models.Poll, error) {
	p, err := s.GetByID(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if p.Status != models.PollActive {
		return models.Poll{}, ErrPollClosed
	}
	if !p.EndsAt.IsZero() && time.Now().UTC().After(p.EndsAt) {
		return models.Poll{}, ErrPollExpired
	}
	found := false
	for _, opt := range p.Options {
		if opt.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return models.Poll{}, ErrNoSuchOption
	}

	_, err = s.votes.InsertOne(ctx, models.PollVote{
		ID:       primitive.NewObjectID(),
		PollID:   pollID,
		UserID:   userID,
		OptionID: optionID,
		CastAt:   time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Poll{}, ErrAlreadyVoted
		}
		return models.Poll{}, err
	}

	var updated models.Poll
	err = s.polls.FindOneAndUpdate(ctx,
		bson.M{"_id": pollID, "options._id": optionID},
		bson.M{"$inc": bson.M{
			"options.$.vote_count": 1,
			"total_votes":          1,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return models.Poll{}, err
	}
	return updated, nil
}

// VoteFor returns the user's vote on a poll, if any.
func (s *Store) VoteFor(ctx context.Context, pollID, userID primitive.ObjectID) (models.PollVote, bool, error) {
	var v models.PollVote
	err := s.votes.FindOne(ctx, bson.M{"poll_id": pollID, "user_id": userID}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PollVote{}, false, nil
	}
	if err != nil {
		return models.PollVote{}, false, err
	}
	return v, true, nil
}

// Close flips an active poll to closed.
func (s *Store) Close(ctx context.Context, pollID primitive.ObjectID) error {
	res, err := s.polls.UpdateOne(ctx,
		bson.M{"_id": pollID, "status": models.PollActive},
		bson.M{"$set": bson.M{"status": models.PollClosed}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPollClosed
	}
	return nil
}
