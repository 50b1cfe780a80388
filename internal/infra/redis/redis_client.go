package redis

import (
	"context"
	"time"

	"telegram-storefront/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

var _ RedisClient = (*Client)(nil)

// Client is the single process-wide Redis handle. go-redis dials lazily and
// pools connections, so one Client is shared by all conversations.
type Client struct {
	cli *redis.Client
}

// NewClient builds the client and probes connectivity. A failed probe is only
// logged: the process keeps running and individual operations fail instead.
func NewClient(ctx context.Context, cfg *config.RedisConfig, logger *zerolog.Logger) *Client {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	client := &Client{cli: c}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(probeCtx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.URL).Msg("redis probe failed; continuing")
	} else {
		logger.Info().Str("addr", cfg.URL).Msg("redis connected")
	}
	return client
}

// NewFromClient wraps an existing go-redis client (tests, shared pools).
func NewFromClient(c *redis.Client) *Client {
	return &Client{cli: c}
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.cli.Incr(ctx, key).Result()
}

func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.cli.Expire(ctx, key, expiration).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *Client) Close() error { return c.cli.Close() }
