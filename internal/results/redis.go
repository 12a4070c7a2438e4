// Package results persists finished import results outside the process so
// they survive restarts and can be read by any server instance.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/catalogio/internal/core"
)

// DefaultKeyPrefix namespaces result keys.
const DefaultKeyPrefix = "catalogio:import:"

// Redis is a core.ResultStore keeping each result as a JSON string with a TTL.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis stores results in client under prefix for ttl.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(importID string) string {
	return r.prefix + importID
}

// Save writes result, replacing any previous value. Results without an id
// are ignored.
func (r *Redis) Save(ctx context.Context, result *core.ImportResult) error {
	if result == nil || result.ImportID == "" {
		return nil
	}

	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", result.ImportID, err)
	}
	if err := r.client.Set(ctx, r.key(result.ImportID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save result %s: %w", result.ImportID, err)
	}
	return nil
}

// Load reads a result, returning core.ErrImportNotFound once it has expired.
func (r *Redis) Load(ctx context.Context, importID string) (*core.ImportResult, error) {
	b, err := r.client.Get(ctx, r.key(importID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", core.ErrImportNotFound, importID)
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", importID, err)
	}

	var result core.ImportResult
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", importID, err)
	}
	return &result, nil
}

var _ core.ResultStore = (*Redis)(nil)
