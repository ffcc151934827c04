package dashcache

import (
	"context" // Context for Redis operations
	"time"    // TTL durations

	"github.com/redis/go-redis/v9" // Redis client
)

// RedisKV adapts a Redis client to the KV storage interface
type RedisKV struct {
	Client *redis.Client // Underlying Redis client
}

// Get fetches a raw value from Redis
func (r RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil // Key does not exist
	} else if err != nil {
		return nil, false, err // Other Redis error
	}
	return val, true, nil
}

// Set stores a raw value in Redis with a TTL
func (r RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

// Del removes a key from Redis
func (r RedisKV) Del(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
