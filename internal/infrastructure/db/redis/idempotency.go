package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

// releaseScript deletes a key only while it still holds the pending marker,
// so a completed key is never dropped.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore maps client-supplied Idempotency-Key values to the movement
// they created. Key format: idem:movement:<key>
//
// A key is claimed with a pending marker before the movement is written and
// replaced by the movement id once the write succeeds.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// Claim reserves key for the caller. When another request holds it, claimed is
// false and movementID is the stored movement, or empty while that request is
// still in flight.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(key), pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := s.client.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired between the two calls; report it as in flight.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	return storedMovementID(val), false, nil
}

// Complete records movementID under a key claimed by the caller.
func (s *IdempotencyStore) Complete(ctx context.Context, key, movementID string) error {
	if err := s.client.Set(ctx, idempotencyKey(key), movementID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failed request so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{idempotencyKey(key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// storedMovementID returns the movement id held in a key value, or "" for the
// pending marker.
func storedMovementID(val string) string {
	if val == pendingMarker {
		return ""
	}
	return val
}

func idempotencyKey(key string) string {
	return "idem:movement:" + key
}
