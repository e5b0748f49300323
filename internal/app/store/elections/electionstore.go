// internal/app/store/elections/electionstore.go
package electionstore

import (
	"context"
	"errors"
	"sort"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	elections *mongo.Collection
	ballots   *mongo.Collection
}

var (
	ErrAlreadyVoted   = errors.New("voter has already submitted a ballot")
	ErrWrongPhase     = errors.New("election is not in the required phase")
	ErrNotCandidate   = errors.New("no such candidate in this election")
	ErrTooManyChoices = errors.New("too many candidates selected")
	ErrNoChoices      = errors.New("a ballot needs at least one choice")
	ErrNotNominated   = errors.New("candidate is not nominated")
)

func New(db *mongo.Database) *Store {
	return &Store{
		elections: db.Collection("elections"),
		ballots:   db.Collection("ballots"),
	}
}

// Create opens a new election in the nomination phase with the given
// candidate slate. Candidate order is preserved and breaks vote ties.
func (s *Store) Create(ctx context.Context, e models.Election) (models.Election, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Status = models.ElectionNomination
	for i := range e.Candidates {
		e.Candidates[i].Votes = 0
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.elections.InsertOne(ctx, e); err != nil {
		return models.Election{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Election, error) {
	var e models.Election
	if err := s.elections.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Election{}, err
	}
	return e, nil
}

// Latest returns the group's most recent election.
func (s *Store) Latest(ctx context.Context, groupID primitive.ObjectID) (models.Election, error) {
	var e models.Election
	err := s.elections.FindOne(ctx,
		bson.M{"group_id": groupID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&e)
	if err != nil {
		return models.Election{}, err
	}
	return e, nil
}

// ListByGroup returns the group's elections, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.Election, error) {
	cur, err := s.elections.Find(ctx,
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

	var out []models.Election
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetNominated marks one candidate as nominated (or withdraws the
// nomination) during the nomination phase. The current value is part of
// the filter so a stale toggle matches nothing instead of flipping twice.
func (s *Store) SetNominated(ctx context.Context, electionID, candidateID primitive.ObjectID, nominated bool) error {
	res, err := s.elections.UpdateOne(ctx,
		bson.M{
			"_id":    electionID,
			"status": models.ElectionNomination,
			"candidates": bson.M{"$elemMatch": bson.M{
				"user_id":   candidateID,
				"nominated": !nominated,
			}},
		},
		bson.M{"$set": bson.M{
			"candidates.$.nominated": nominated,
			"updated_at":             time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		e, readErr := s.GetByID(ctx, electionID)
		if readErr != nil {
			return readErr
		}
		if e.Status != models.ElectionNomination {
			return ErrWrongPhase
		}
		for _, c := range e.Candidates {
			if c.UserID == candidateID {
				// Already in the requested state; nothing to do.
				return nil
			}
		}
		return ErrNotCandidate
	}
	return nil
}

// AdvancePhase moves the election from one phase to the next. The from
// status is part of the filter, so two admins advancing at once produce
// exactly one transition.
func (s *Store) AdvancePhase(ctx context.Context, electionID primitive.ObjectID, from, to string) error {
	res, err := s.elections.UpdateOne(ctx,
		bson.M{"_id": electionID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrWrongPhase
	}
	return nil
}

// SubmitBallot records a voter's choices during the voting phase. Each
// choice must name a nominated candidate, and at most
// models.ElectionMaxChoices distinct candidates may be selected. The
// unique (election_id, voter_id) index forbids a second ballot. Vote
// counters for all chosen candidates move in one update.
func (s *Store) SubmitBallot(ctx context.Context, electionID, voterID primitive.ObjectID, choices []primitive.ObjectID) (models.Ballot, error) {
	if len(choices) == 0 {
		return models.Ballot{}, ErrNoChoices
	}
	distinct := make(map[primitive.ObjectID]bool, len(choices))
	for _, c := range choices {
		distinct[c] = true
	}
	if len(distinct) > models.ElectionMaxChoices {
		return models.Ballot{}, ErrTooManyChoices
	}

	e, err := s.GetByID(ctx, electionID)
	if err != nil {
		return models.Ballot{}, err
	}
	if e.Status != models.ElectionVoting {
		return models.Ballot{}, ErrWrongPhase
	}
	nominated := make(map[primitive.ObjectID]bool, len(e.Candidates))
	for _, c := range e.Candidates {
		if c.Nominated {
			nominated[c.UserID] = true
		}
	}
	final := make([]primitive.ObjectID, 0, len(distinct))
	for _, c := range choices {
		if !distinct[c] {
			continue // already added
		}
		distinct[c] = false
		if !nominated[c] {
			return models.Ballot{}, ErrNotNominated
		}
		final = append(final, c)
	}

	b := models.Ballot{
		ID:         primitive.NewObjectID(),
		ElectionID: electionID,
		VoterID:    voterID,
		Choices:    final,
		CastAt:     time.Now().UTC(),
	}
	if _, err := s.ballots.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Ballot{}, ErrAlreadyVoted
		}
		return models.Ballot{}, err
	}

	_, err = s.elections.UpdateOne(ctx,
		bson.M{"_id": electionID},
		bson.M{"$inc": bson.M{"candidates.$[c].votes": 1}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"c.user_id": bson.M{"$in": final}}},
		}),
	)
	if err != nil {
		return models.Ballot{}, err
	}
	return b, nil
}

// BallotFor returns the voter's ballot, if any.
func (s *Store) BallotFor(ctx context.Context, electionID, voterID primitive.ObjectID) (models.Ballot, bool, error) {
	var b models.Ballot
	err := s.ballots.FindOne(ctx, bson.M{"election_id": electionID, "voter_id": voterID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Ballot{}, false, nil
	}
	if err != nil {
		return models.Ballot{}, false, err
	}
	return b, true, nil
}

// Rank orders the nominated candidates by votes, descending. Ties keep
// the candidates' original slate order. The first models.ElectionSeats
// entries are the winners.
func Rank(e models.Election) []models.ElectionCandidate {
	ranked := make([]models.ElectionCandidate, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		if c.Nominated {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Votes > ranked[j].Votes
	})
	return ranked
}

// Winners returns up to models.ElectionSeats elected candidates.
func Winners(e models.Election) []models.ElectionCandidate {
	ranked := Rank(e)
	if len(ranked) > models.ElectionSeats {
		ranked = ranked[:models.ElectionSeats]
	}
	return ranked
}
