package rdx

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis client. It stays nil when Redis is not
// configured; callers treat Redis strictly as an accelerator and event
// bus, never as the system of record.
var Conn *redis.Client

// Init connects to Redis using REDIS_ADDR (and optional REDIS_PASSWORD,
// REDIS_DB is always 0 here).
func Init(ctx context.Context) error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	Conn = client
	return nil
}

// RdxHset stores a field in a hash. Session tokens are cached under the
// "tokki" hash keyed by userId.
func RdxHset(hash, field, value string) error {
	if Conn == nil {
		return nil
	}
	return Conn.HSet(context.Background(), hash, field, value).Err()
}

// RdxHget reads a field from a hash.
func RdxHget(hash, field string) (string, error) {
	if Conn == nil {
		return "", nil
	}
	return Conn.HGet(context.Background(), hash, field).Result()
}

func Close() error {
	if Conn != nil {
		return Conn.Close()
	}
	return nil
}
