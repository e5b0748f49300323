package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kolohq/kolo/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const defaultTestMongoURI = "mongodb://localhost:27017"

// SetupTestDB connects to the test MongoDB instance and returns a database
// with a unique name for this test. The database is dropped during cleanup.
// Tests are skipped when no MongoDB is reachable, so the suite still runs
// in environments without one.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	dbName := fmt.Sprintf("kolo_test_%s", primitive.NewObjectID().Hex())
	db := client.Database(dbName)

	if err := indexes.Ensure(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("failed to ensure indexes on test database: %v", err)
	}

	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		if err := db.Drop(cctx); err != nil {
			t.Logf("failed to drop test database %s: %v", dbName, err)
		}
		_ = client.Disconnect(cctx)
	})

	return db
}

// TestContext returns a context with a timeout suitable for test database
// operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
