// internal/app/features/dues/handler.go
package dues

import (
	"github.com/kolohq/kolo/internal/app/features/transactions"
	"github.com/kolohq/kolo/internal/app/policy/grouppolicy"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers group dues: creation by admins, payment by members.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Audit  *auditlog.Logger
	Policy *grouppolicy.Policy
	Stream *transactions.Hub
	Notify notificationstore.Sender
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, policy *grouppolicy.Policy, stream *transactions.Hub, notify notificationstore.Sender, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Audit:  audit,
		Policy: policy,
		Stream: stream,
		Notify: notify,
	}
}
