// internal/app/features/wallets/handler.go
package wallets

import (
	"github.com/kolohq/kolo/internal/app/features/transactions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers the signed-in user's wallet: balance and funding.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Stream   *transactions.Hub
	Currency string
}

func NewHandler(db *mongo.Database, stream *transactions.Hub, logger *zap.Logger, currency string) *Handler {
	return &Handler{DB: db, Log: logger, Stream: stream, Currency: currency}
}
