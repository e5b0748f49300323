package pollstore_test

import (
	"errors"
	"testing"
	"time"

	pollstore "github.com/kolohq/kolo/internal/app/store/polls"
	"github.com/kolohq/kolo/internal/domain/models"
	"github.com/kolohq/kolo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_AssignsOptionIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Poll{
		GroupID:   primitive.NewObjectID(),
		Title:     "Next meeting venue",
		CreatedBy: primitive.NewObjectID(),
		EndsAt:    time.Now().UTC().Add(48 * time.Hour),
	}, []string{"Town hall", "School field", "Church yard"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Status != models.PollActive {
		t.Errorf("expected status active, got %q", created.Status)
	}
	if len(created.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(created.Options))
	}
	for i, opt := range created.Options {
		if opt.ID == primitive.NilObjectID {
			t.Errorf("option %d has no ID", i)
		}
		if opt.VoteCount != 0 {
			t.Errorf("option %d starts with %d votes", i, opt.VoteCount)
		}
	}
	if created.TotalVotes != 0 {
		t.Errorf("expected zero total votes, got %d", created.TotalVotes)
	}
}

func TestStore_CastVote_IncrementsBothCounters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	poll := fixtures.CreatePoll(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"Levy increase", []string{"Yes", "No"})

	voterA := primitive.NewObjectID()
	voterB := primitive.NewObjectID()

	after, err := store.CastVote(ctx, poll.ID, voterA, poll.Options[0].ID)
	if err != nil {
		t.Fatalf("first CastVote failed: %v", err)
	}
	if after.Options[0].VoteCount != 1 || after.TotalVotes != 1 {
		t.Errorf("after first vote: option=%d total=%d, want 1/1",
			after.Options[0].VoteCount, after.TotalVotes)
	}

	after, err = store.CastVote(ctx, poll.ID, voterB, poll.Options[1].ID)
	if err != nil {
		t.Fatalf("second CastVote failed: %v", err)
	}

	// TotalVotes must equal the sum of option counts.
	var sum int64
	for _, opt := range after.Options {
		sum += opt.VoteCount
	}
	if sum != after.TotalVotes {
		t.Errorf("option counts sum to %d but total_votes is %d", sum, after.TotalVotes)
	}
	if after.TotalVotes != 2 {
		t.Errorf("expected 2 total votes, got %d", after.TotalVotes)
	}
}

func TestStore_CastVote_OncePerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	poll := fixtures.CreatePoll(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"Adopt monthly dues", []string{"Yes", "No"})
	voter := primitive.NewObjectID()

	if _, err := store.CastVote(ctx, poll.ID, voter, poll.Options[0].ID); err != nil {
		t.Fatalf("first CastVote failed: %v", err)
	}

	// Second vote is rejected even for a different option.
	_, err := store.CastVote(ctx, poll.ID, voter, poll.Options[1].ID)
	if !errors.Is(err, pollstore.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	got, err := store.GetByID(ctx, poll.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TotalVotes != 1 {
		t.Errorf("expected counters unchanged at 1, got %d", got.TotalVotes)
	}
}

func TestStore_CastVote_RejectsUnknownOption(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	poll := fixtures.CreatePoll(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"Security levy", []string{"Yes", "No"})

	_, err := store.CastVote(ctx, poll.ID, primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, pollstore.ErrNoSuchOption) {
		t.Fatalf("expected ErrNoSuchOption, got %v", err)
	}
}

func TestStore_CastVote_ClosedPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	poll := fixtures.CreatePoll(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"Closed question", []string{"Yes", "No"})
	if err := store.Close(ctx, poll.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := store.CastVote(ctx, poll.ID, primitive.NewObjectID(), poll.Options[0].ID)
	if !errors.Is(err, pollstore.ErrPollClosed) {
		t.Fatalf("expected ErrPollClosed, got %v", err)
	}
}

func TestStore_VoteFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := pollstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	poll := fixtures.CreatePoll(ctx, primitive.NewObjectID(), primitive.NewObjectID(),
		"Venue", []string{"A", "B"})
	voter := primitive.NewObjectID()

	_, voted, err := store.VoteFor(ctx, poll.ID, voter)
	if err != nil {
		t.Fatalf("VoteFor failed: %v", err)
	}
	if voted {
		t.Error("expected no vote before casting")
	}

	if _, err := store.CastVote(ctx, poll.ID, voter, poll.Options[1].ID); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	vote, voted, err := store.VoteFor(ctx, poll.ID, voter)
	if err != nil {
		t.Fatalf("VoteFor failed: %v", err)
	}
	if !voted {
		t.Fatal("expected a recorded vote")
	}
	if vote.OptionID != poll.Options[1].ID {
		t.Errorf("recorded option %s, want %s", vote.OptionID.Hex(), poll.Options[1].ID.Hex())
	}
}
