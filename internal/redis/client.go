// Package redis provides the rueidis-backed client behind the response
// cache collaborator: an MD5-keyed cache of the raw PDF extractor
// response, fronting the MinerU/Markitdown calls (see the response-cache
// scoping design note for why the object-store tier was not carried
// forward).
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kestrel-data/docreader/internal/config"
)

// RedisClient is the narrow set of operations the response cache needs:
// plain string get/set plus a JSON convenience pair.
type RedisClient interface {
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error

	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error

	Ping(ctx context.Context) error
	Close()
}

// Client implements RedisClient using rueidis.
type Client struct {
	client rueidis.Client
}

var _ RedisClient = (*Client)(nil)

// ClientOptions holds configuration for Redis client creation.
type ClientOptions struct {
	Addr     string `validate:"required"`
	Password string
	DB       int `validate:"min=0,max=15"`
}

// NewClient constructs a rueidis-backed client against a single addr
// (host:port), as configured by REDIS_ADDR.
func NewClient(opts ClientOptions) (*Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return &Client{client: client}, nil
}

// NewClientFromConfig constructs a client from the loaded application
// configuration's Redis section.
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	return NewClient(ClientOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func (c *Client) Close() { c.client.Close() }

func (c *Client) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	var cmd rueidis.Completed
	if expiration > 0 {
		cmd = c.client.B().Set().Key(key).Value(value).ExSeconds(int64(expiration.Seconds())).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(value).Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cmd := c.client.B().Get().Key(key).Build()
	result := c.client.Do(ctx, cmd)
	if result.Error() != nil {
		if rueidis.IsRedisNil(result.Error()) {
			return "", nil
		}
		return "", result.Error()
	}
	return result.ToString()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := c.client.B().Del().Key(keys...).Build()
	return c.client.Do(ctx, cmd).Error()
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := marshalJSON(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.Set(ctx, key, string(jsonData), expiration)
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == "" {
		return nil
	}
	return unmarshalJSON([]byte(data), dest)
}

func (c *Client) Ping(ctx context.Context) error {
	cmd := c.client.B().Ping().Build()
	return c.client.Do(ctx, cmd).Error()
}
