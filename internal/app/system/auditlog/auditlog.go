// Package auditlog mirrors governance events to the group's durable audit
// trail and to the structured log, gated by configuration. The settings
// mirror the usual "all" / "db" / "log" / "off" scheme: "all" writes both
// sinks, "db" only the Mongo trail, "log" only zap, "off" neither.
package auditlog

import (
	"context"
	"strings"

	auditstore "github.com/kolohq/kolo/internal/app/store/audit"
	"github.com/kolohq/kolo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds the per-category logging modes.
type Config struct {
	Governance string
	Auth       string
}

type Logger struct {
	store *auditstore.Store
	log   *zap.Logger
	cfg   Config
}

func New(store *auditstore.Store, log *zap.Logger, cfg Config) *Logger {
	cfg.Governance = normalize(cfg.Governance)
	cfg.Auth = normalize(cfg.Auth)
	return &Logger{store: store, log: log, cfg: cfg}
}

func normalize(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "db":
		return "db"
	case "log":
		return "log"
	case "off":
		return "off"
	default:
		return "all"
	}
}

// Governance records a governance action against the group's audit trail.
// The durable write happens first; if it fails the error surfaces to the
// caller, because a governance action without an audit line is a bug.
func (l *Logger) Governance(ctx context.Context, groupID, actorID primitive.ObjectID, activity string) error {
	mode := l.cfg.Governance
	if mode == "all" || mode == "db" {
		if _, err := l.store.Append(ctx, groupID, actorID, activity); err != nil {
			l.log.Error("audit append failed",
				zap.String("group_id", groupID.Hex()),
				zap.String("activity", activity),
				zap.Error(err))
			return err
		}
	}
	if mode == "all" || mode == "log" {
		l.log.Info("governance",
			zap.String("group_id", groupID.Hex()),
			zap.String("actor_id", actorID.Hex()),
			zap.String("activity", activity))
	}
	return nil
}

// Trail returns a group's durable audit entries, newest first.
func (l *Logger) Trail(ctx context.Context, groupID primitive.ObjectID, limit, offset int64) ([]models.AuditEntry, error) {
	return l.store.ListByGroup(ctx, groupID, limit, offset)
}

// Auth records an authentication event. Auth events go to zap only; they
// are operational, not part of any group's governance record.
func (l *Logger) Auth(userID primitive.ObjectID, event, email string) {
	mode := l.cfg.Auth
	if mode == "off" || mode == "db" {
		return
	}
	l.log.Info("auth",
		zap.String("user_id", userID.Hex()),
		zap.String("event", event),
		zap.String("email", email))
}
