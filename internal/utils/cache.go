package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // Cached values travel as JSON
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache loads a JSON value from Redis into dest. A missing key is a
// miss (false, nil), matching the not-found contract of the dashboard
// cache storage; only real Redis or decode failures surface as errors.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	data, err := rdb.Get(ctx, key).Bytes() // Fetch raw bytes from Redis
	switch {
	case err == redis.Nil:
		return false, nil // Key does not exist
	case err != nil:
		return false, err // Other Redis error
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err // Stored value is not valid JSON for dest
	}
	return true, nil
}

// SetCache stores a value in Redis as JSON. A zero TTL keeps the key
// forever, used for last-known fallbacks.
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, data, ttl).Err() // Set value in Redis with TTL
}
