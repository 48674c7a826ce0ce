package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard records inbound message ids so a redelivered message is dropped
// instead of being processed twice. The insert is the linearization point:
// SETNX either claims the id or observes a prior claim, so two concurrent
// deliveries of the same id resolve to exactly one novel result.
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewGuard(rdb *redis.Client, ttl time.Duration) *Guard {
	return &Guard{rdb: rdb, ttl: ttl}
}

func (g *Guard) key(messageID string) string {
	return fmt.Sprintf("msg:%s", messageID)
}

// SeenOrRecord returns true when messageID was already recorded. When it
// returns false the id has been durably recorded and the caller owns the
// message. The record is written before any side-effecting work begins; on a
// storage error the caller must drop the message rather than risk processing
// it without a record.
func (g *Guard) SeenOrRecord(ctx context.Context, messageID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, g.key(messageID), "1", g.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
