package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces rate limit keys when RedisConfig.Prefix is empty.
const DefaultPrefix = "ratecap"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Redis is a Redis-backed implementation of Store suitable for distributed
// deployments. All counting runs inside a single MULTI/EXEC transaction, so
// concurrent increments from independent processes never race on window
// initialization and never lose updates; Redis itself arbitrates per-key
// access. The store keeps no local mutable state beyond the client handle.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds configuration for the Redis store. All fields are
// populated explicitly by the host application (from env, flags, or config
// files); the store never reads the environment itself.
type RedisConfig struct {
	// URL is the Redis server address (e.g. "localhost:6379").
	URL string `validate:"required"`

	// Password for Redis authentication. Leave empty when not needed.
	Password string

	// DB is the Redis database number.
	DB int `validate:"gte=0,lte=15"`

	// Prefix namespaces every key as "{prefix}-{key}" so independent
	// limiters can share one keyspace without collisions.
	// Defaults to DefaultPrefix.
	Prefix string

	// TTL is the fixed window length applied when a counter is created.
	TTL time.Duration `validate:"required,gt=0"`

	// PoolSize is the maximum number of connections (go-redis default when 0).
	PoolSize int `validate:"gte=0"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `validate:"gte=0"`

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// NewRedis creates a Redis store with the given configuration. The
// configuration is validated, then the connection is verified with a ping
// before the store is returned; construction fails if the server cannot be
// reached within 5 seconds.
func NewRedis(config RedisConfig) (*Redis, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}

	opts := &redis.Options{
		Addr:     config.URL,
		Password: config.Password,
		DB:       config.DB,
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.MinIdleConns > 0 {
		opts.MinIdleConns = config.MinIdleConns
	}
	if config.DialTimeout > 0 {
		opts.DialTimeout = config.DialTimeout
	}
	if config.ReadTimeout > 0 {
		opts.ReadTimeout = config.ReadTimeout
	}
	if config.WriteTimeout > 0 {
		opts.WriteTimeout = config.WriteTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}, nil
}

// IncrementBy atomically adds amount to the counter for the given key using
// one transaction of SETNX (initialize to 0 with the window TTL, only when
// absent), INCRBY, and TTL. The commands execute as an indivisible unit, so
// two concurrent callers never race on initialization: exactly one SETNX
// wins and every caller observes a consistent post-increment count.
//
// The snapshot's ExpiresAt is now plus the key's remaining TTL; CreatedAt is
// always zero because Redis does not expose a key's creation time.
func (r *Redis) IncrementBy(ctx context.Context, key string, amount int64) (Value, error) {
	fullKey := r.key(key)

	pipe := r.client.TxPipeline()
	pipe.SetNX(ctx, fullKey, 0, r.ttl)
	incr := pipe.IncrBy(ctx, fullKey, amount)
	ttlCmd := pipe.TTL(ctx, fullKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return Value{}, fmt.Errorf("redis increment failed: %w", err)
	}

	v := Value{Count: incr.Val()}
	if remaining := ttlCmd.Val(); remaining > 0 {
		v.ExpiresAt = time.Now().Add(remaining)
	}
	return v, nil
}

// Increment is IncrementBy with an amount of 1.
func (r *Redis) Increment(ctx context.Context, key string) (Value, error) {
	return r.IncrementBy(ctx, key, 1)
}

// Delete removes the counter for the given key. The prior value is not
// reported (always false): reading it first would cost an extra command in
// the round trip, so callers must treat the removed value as best-effort
// absent.
func (r *Redis) Delete(ctx context.Context, key string) (Value, bool, error) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return Value{}, false, fmt.Errorf("redis delete failed: %w", err)
	}
	return Value{}, false, nil
}

// Clear is a no-op: the keyspace may be shared with other limiters and
// applications, so bulk deletion here is unsafe. Stale counters are
// reclaimed by Redis through per-key TTLs instead.
func (r *Redis) Clear(context.Context) error {
	return nil
}

// Close releases the Redis client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(key string) string {
	return r.prefix + "-" + key
}
