// internal/app/features/governance/handler.go
package governance

import (
	"github.com/kolohq/kolo/internal/app/policy/grouppolicy"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers group governance: disbursement approval, polls, trustee
// elections, and the audit trail. Every mutation here lands an audit
// entry after (and only after) the durable write succeeds.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Audit  *auditlog.Logger
	Policy *grouppolicy.Policy
	Notify notificationstore.Sender
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, policy *grouppolicy.Policy, notify notificationstore.Sender, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Audit:  audit,
		Policy: policy,
		Notify: notify,
	}
}
