// internal/app/features/notifications/handler.go
package notifications

import (
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"go.uber.org/zap"
)

// Handler covers the signed-in user's notification feed. It depends on
// the concrete store rather than the Sender interface because the feed
// endpoints need reads, not just delivery.
type Handler struct {
	Store *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(store *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}
