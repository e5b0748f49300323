// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Ensure is called at startup. Index creation is idempotent: creating an
// index that already exists with the same keys and options is a no-op.
// Errors are aggregated so every problem is visible and startup fails fast.
func Ensure(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, models []mongo.IndexModel) {
		_, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Info("indexes ensured", zap.String("collection", coll), zap.Int("count", len(models)))
	}

	unique := options.Index().SetUnique(true)

	ensure("users", []mongo.IndexModel{
		{Keys: bson.D{{Key: "email_ci", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email_ci")},
	})
	ensure("profiles", []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user")},
	})
	ensure("wallets", []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "wallet_type", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_type")},
	})
	ensure("transactions", []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: unique},
	})
	ensure("groups", []mongo.IndexModel{
		{Keys: bson.D{{Key: "name_ci", Value: 1}}},
	})
	ensure("group_members", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_group_user")},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	ensure("ajo_groups", []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("ajo_memberships", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_group_user")},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	ensure("dues", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "due_date", Value: -1}}},
	})
	ensure("dues_payments", []mongo.IndexModel{
		{Keys: bson.D{{Key: "due_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_due_user")},
	})
	ensure("campaigns", []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("disbursements", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("polls", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("poll_votes", []mongo.IndexModel{
		{Keys: bson.D{{Key: "poll_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_poll_user")},
	})
	ensure("elections", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("ballots", []mongo.IndexModel{
		{Keys: bson.D{{Key: "election_id", Value: 1}, {Key: "voter_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_election_voter")},
	})
	ensure("audit_logs", []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("notifications", []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	ensure("invites", []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_code")},
	})
	ensure("oauth_states", []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_state")},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires")},
	})

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
