// internal/app/features/login/handler.go
package login

import (
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds dependencies for account endpoints: sign-up, sign-in,
// sign-out, and the current-user lookup.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Audit    *auditlog.Logger
	Currency string
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger, currency string) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Audit:    audit,
		Currency: currency,
	}
}
