package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"

	"github.com/neotogether/neotogether/internal/telemetry"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Client is the subset of redis.Client operations the service uses,
// extracted so tests can substitute a fake.
type Client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisService provides read-through caching for slow-changing reads such
// as the interest catalog. Every operation is best-effort; callers fall
// back to the database when the cache misses or errors.
type RedisService struct {
	client Client
}

// Catalog cache TTLs, in seconds.
const (
	CatalogTTL = 3600
)

// NewRedisService connects to Redis and instruments the client with
// OpenTelemetry tracing.
func NewRedisService(config *RedisConfig) (*RedisService, error) {
	ctx := context.Background()
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "redis_connection",
		"host":      config.Host,
		"port":      config.Port,
		"db":        config.DB,
	})

	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:   config.Password,
		DB:         config.DB,
		PoolSize:   config.PoolSize,
		MaxRetries: 3,
	})
	rdb.AddHook(redisotel.NewTracingHook())

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected")
	return &RedisService{client: rdb}, nil
}

// NewRedisServiceWithClient wraps an existing client; used by tests.
func NewRedisServiceWithClient(client Client) *RedisService {
	return &RedisService{client: client}
}

// SetJSON marshals data and stores it under key with a TTL in seconds.
func (s *RedisService) SetJSON(ctx context.Context, key string, data interface{}, ttlSeconds int) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// GetJSON loads key into dest. Returns redis.Nil on a miss.
func (s *RedisService) GetJSON(ctx context.Context, key string, dest interface{}) error {
	payload, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// IsMiss reports whether err is a cache miss rather than a failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// HealthCheck reports whether Redis answers a ping.
func (s *RedisService) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisService) Close() error {
	return s.client.Close()
}
