// internal/app/features/profile/handler.go
package profile

import (
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers the signed-in user's profile and the KYC pipeline.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Audit  *auditlog.Logger
	Notify notificationstore.Sender
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, notify notificationstore.Sender, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Audit: audit, Notify: notify}
}
