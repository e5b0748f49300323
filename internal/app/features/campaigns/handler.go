// internal/app/features/campaigns/handler.go
package campaigns

import (
	"github.com/kolohq/kolo/internal/app/features/transactions"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers crowdfunding campaigns.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Stream *transactions.Hub
	Notify notificationstore.Sender
}

func NewHandler(db *mongo.Database, stream *transactions.Hub, notify notificationstore.Sender, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Stream: stream, Notify: notify}
}
