// internal/app/features/transactions/handler.go
package transactions

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers the signed-in user's transaction history and the live
// stream.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
	Hub *Hub
}

func NewHandler(db *mongo.Database, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Hub: hub}
}
