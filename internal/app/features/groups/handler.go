// internal/app/features/groups/handler.go
package groups

import (
	"github.com/kolohq/kolo/internal/app/policy/grouppolicy"
	notificationstore "github.com/kolohq/kolo/internal/app/store/notifications"
	"github.com/kolohq/kolo/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler covers community groups: creation, membership, group roles,
// and invites.
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
