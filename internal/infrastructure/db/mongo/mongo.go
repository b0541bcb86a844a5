package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/inventory-system/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// IndexCreator is implemented by every repository in this package.
type IndexCreator interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes runs EnsureIndexes on each repository in order, stopping at the first failure.
func EnsureIndexes(ctx context.Context, repos ...IndexCreator) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}

// objectID parses a 24-hex identifier, mapping malformed input to domain.ErrInvalidID.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

// now is truncated to the millisecond precision MongoDB stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
