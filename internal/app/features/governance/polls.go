// internal/app/features/governance/polls.go
package governance

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	pollstore "github.com/kolohq/kolo/internal/app/store/polls"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/htmlsanitize"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/inputval"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type pollOptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count"`
}

type pollView struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"group_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Options     []pollOptionView `json:"options"`
	TotalVotes  int64            `json:"total_votes"`
	Status      string           `json:"status"`
	EndsAt      string           `json:"ends_at"`
	MyVote      string           `json:"my_vote,omitempty"` // option ID
}

func toPollView(p models.Poll) pollView {
	opts := make([]pollOptionView, 0, len(p.Options))
	for _, o := range p.Options {
		opts = append(opts, pollOptionView{
			ID:        o.ID.Hex(),
			Text:      o.Text,
			VoteCount: o.VoteCount,
		})
	}
	return pollView{
		ID:          p.ID.Hex(),
		GroupID:     p.GroupID.Hex(),
		Title:       p.Title,
		Description: p.Description,
		Options:     opts,
		TotalVotes:  p.TotalVotes,
		Status:      p.Status,
		EndsAt:      p.EndsAt.Format(time.RFC3339),
	}
}

// Polls run for a week unless the creator picks an end time.
const defaultPollDuration = 7 * 24 * time.Hour

type createPollRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	EndsAt      string   `json:"ends_at,omitempty"` // RFC 3339, optional
}

// ServeCreatePoll handles POST /groups/{groupID}/governance/polls.
// Members only; a poll needs 2 to 5 non-empty options. The end time
// defaults to a week out when the request does not carry one.
func (h *Handler) ServeCreatePoll(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	var req createPollRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	req.Title = htmlsanitize.Plain(req.Title)
	req.Description = htmlsanitize.Plain(req.Description)
	options, err := inputval.PollInput(req.Title, req.Description, htmlsanitize.PlainAll(req.Options))
	if err != nil {
		httpjson.Unprocessable(w, err.Error())
		return
	}
	endsAt := time.Now().UTC().Add(defaultPollDuration)
	if strings.TrimSpace(req.EndsAt) != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			httpjson.Unprocessable(w, "ends_at must be an RFC 3339 timestamp")
			return
		}
		if !parsed.After(time.Now().UTC()) {
			httpjson.Unprocessable(w, "ends_at must be in the future")
			return
		}
		endsAt = parsed.UTC()
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create poll")
	defer cancel()

	isMember, err := h.Policy.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	p, err := pollstore.New(h.DB).Create(ctx, models.Poll{
		GroupID:     groupID,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   userID,
		EndsAt:      endsAt.UTC(),
	}, options)
	if err != nil {
		h.Log.Error("create poll failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, groupID, userID, name+" created poll \""+p.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, toPollView(p))
}

// ServeListPolls handles GET /groups/{groupID}/governance/polls.
func (h *Handler) ServeListPolls(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid group id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list polls")
	defer cancel()

	isMember, err := h.Policy.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	items, err := pollstore.New(h.DB).ListByGroup(ctx, groupID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list polls failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	out := make([]pollView, 0, len(items))
	for _, p := range items {
		out = append(out, toPollView(p))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// ServeGetPoll handles GET /polls/{pollID}, including the caller's own
// vote so the client can lock the UI.
func (h *Handler) ServeGetPoll(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	pollID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "pollID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid poll id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get poll")
	defer cancel()

	store := pollstore.New(h.DB)
	p, err := store.GetByID(ctx, pollID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "poll not found")
		return
	}
	isMember, err := h.Policy.IsMember(ctx, p.GroupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	view := toPollView(p)
	if v, voted, err := store.VoteFor(ctx, pollID, userID); err == nil && voted {
		view.MyVote = v.OptionID.Hex()
	}
	httpjson.Write(w, http.StatusOK, view)
}

type voteRequest struct {
	OptionID string `json:"option_id"`
}

// ServeVote handles POST /polls/{pollID}/vote. One vote per user,
// enforced by the vote collection's unique index; the option tally and
// poll total move together in a single update.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	pollID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "pollID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid poll id")
		return
	}

	var req voteRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.BadRequest(w, "invalid request body")
		return
	}
	optionID, err := primitive.ObjectIDFromHex(req.OptionID)
	if err != nil {
		httpjson.Unprocessable(w, "invalid option id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "cast poll vote")
	defer cancel()

	store := pollstore.New(h.DB)
	p, err := store.GetByID(ctx, pollID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "poll not found")
		return
	}
	isMember, err := h.Policy.IsMember(ctx, p.GroupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "members only")
		return
	}

	p, err = store.CastVote(ctx, pollID, userID, optionID)
	switch {
	case errors.Is(err, pollstore.ErrAlreadyVoted):
		httpjson.Error(w, http.StatusConflict, "you have already voted on this poll")
		return
	case errors.Is(err, pollstore.ErrPollClosed):
		httpjson.Error(w, http.StatusConflict, "poll is closed")
		return
	case errors.Is(err, pollstore.ErrPollExpired):
		httpjson.Error(w, http.StatusConflict, "poll has ended")
		return
	case errors.Is(err, pollstore.ErrNoSuchOption):
		httpjson.Unprocessable(w, "poll has no such option")
		return
	case err != nil:
		h.Log.Error("cast vote failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	if err := h.Audit.Governance(ctx, p.GroupID, userID, name+" voted on poll \""+p.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}
	view := toPollView(p)
	view.MyVote = optionID.Hex()
	httpjson.Write(w, http.StatusOK, view)
}

// ServeClosePoll handles POST /polls/{pollID}/close. Creator or a group
// admin only.
func (h *Handler) ServeClosePoll(w http.ResponseWriter, r *http.Request) {
	_, name, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	pollID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "pollID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid poll id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "close poll")
	defer cancel()

	store := pollstore.New(h.DB)
	p, err := store.GetByID(ctx, pollID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "poll not found")
		return
	}

	if p.CreatedBy != userID {
		canManage, err := h.Policy.CanManageGroup(ctx, p.GroupID, userID)
		if err != nil {
			h.Log.Error("manage check failed", zap.Error(err))
			httpjson.ServerError(w)
			return
		}
		if !canManage {
			httpjson.Error(w, http.StatusForbidden, "only the poll creator or a group admin can close it")
			return
		}
	}

	if err := store.Close(ctx, pollID); err != nil {
		httpjson.Error(w, http.StatusConflict, "poll is already closed")
		return
	}

	if err := h.Audit.Governance(ctx, p.GroupID, userID, name+" closed poll \""+p.Title+"\""); err != nil {
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": models.PollClosed})
}
