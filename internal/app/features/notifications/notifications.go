// internal/app/features/notifications/notifications.go
package notifications

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kolohq/kolo/internal/app/system/authz"
	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/paging"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type notificationView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Kind      string `json:"kind"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// ServeList handles GET /notifications: the caller's feed plus the
// unread count for the badge.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list notifications")
	defer cancel()

	items, err := h.Store.ListForUser(ctx, userID, paging.ParseLimit(r), paging.ParseOffset(r))
	if err != nil {
		h.Log.Error("list notifications failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	unread, err := h.Store.CountUnread(ctx, userID)
	if err != nil {
		h.Log.Error("count unread failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}

	out := make([]notificationView, 0, len(items))
	for _, n := range items {
		out = append(out, notificationView{
			ID:        n.ID.Hex(),
			Title:     n.Title,
			Body:      n.Body,
			Kind:      n.Kind,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"notifications": out,
		"unread":        unread,
	})
}

// ServeMarkRead handles POST /notifications/{notificationID}/read.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notificationID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid notification id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "mark notification read")
	defer cancel()

	err = h.Store.MarkRead(ctx, id, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "no such notification")
		return
	}
	if err != nil {
		h.Log.Error("mark read failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"read": true})
}

// ServeMarkAllRead handles POST /notifications/read-all.
func (h *Handler) ServeMarkAllRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mark all notifications read")
	defer cancel()

	n, err := h.Store.MarkAllRead(ctx, userID)
	if err != nil {
		h.Log.Error("mark all read failed", zap.Error(err))
		httpjson.ServerError(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int64{"marked": n})
}
