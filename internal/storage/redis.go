package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"customs-clearance/internal/domain"
)

const counterKeyPrefix = "clearance:refseq"

// RedisCounter issues reference sequences with INCR, which is atomic across
// every API instance sharing the Redis server.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}
	return client, nil
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Next(ctx context.Context, transactionType domain.TransactionType, year string) (int64, error) {
	seq, err := c.client.Incr(ctx, counterKey(transactionType, year)).Result()
	if err != nil {
		return 0, fmt.Errorf("storage: redis incr: %w", err)
	}
	return seq, nil
}

func (c *RedisCounter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func counterKey(transactionType domain.TransactionType, year string) string {
	return fmt.Sprintf("%s:%s:%s", counterKeyPrefix, transactionType, year)
}
