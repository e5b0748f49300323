package health

import (
	"context"
	"net/http"

	"github.com/kolohq/kolo/internal/app/system/httpjson"
	"github.com/kolohq/kolo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /healthz.
//
// On success: 200 and {"status":"ok","database":"connected"}.
// On DB failure: 503 and {"status":"error","database":"disconnected",...}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		httpjson.Write(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "database unavailable",
		})
		return
	}

	httpjson.Write(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Database: "connected",
	})
}
