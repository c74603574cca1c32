package order

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sequenceKey = "orders:seq"

type Sequencer interface {
	Next(ctx context.Context) (int64, error)
}

// RedisSequencer hands out a counter shared by every instance.
type RedisSequencer struct {
	RDB *redis.Client
	Key string
}

func NewRedisSequencer(rdb *redis.Client) *RedisSequencer {
	return &RedisSequencer{RDB: rdb, Key: sequenceKey}
}

func (s *RedisSequencer) Next(ctx context.Context) (int64, error) {
	n, err := s.RDB.Incr(ctx, s.Key).Result()
	if err != nil {
		return 0, fmt.Errorf("order sequence: %w", err)
	}
	return n, nil
}

func FormatNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%d-%d", at.UnixMilli(), seq)
}
