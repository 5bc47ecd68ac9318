package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const keyPrefix = "library:qa:"

type Config struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_TTL" default:"1h"`
}

// AnswerCache stores generated answers keyed by the normalized question.
type AnswerCache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, answer string) error
	Close() error
}

// New returns a no-op cache when no address is configured.
func New(ctx context.Context, cfg Config) (AnswerCache, error) {
	if cfg.Addr == "" {
		return nop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return &redisCache{client: client, ttl: cfg.TTL}, nil
}

func Key(question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCache) Get(ctx context.Context, question string) (string, bool, error) {
	val, err := c.client.Get(ctx, Key(question)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, question, answer string) error {
	return c.client.Set(ctx, Key(question), answer, c.ttl).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

type nop struct{}

func (nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (nop) Set(context.Context, string, string) error         { return nil }
func (nop) Close() error                                      { return nil }
