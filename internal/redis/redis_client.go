package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// activeConnsKey is the set of currently connected session ids. It is
// ephemeral bookkeeping for the diagnostics API, not room state.
const activeConnsKey = "active_connections"

type Client struct {
	rdb *redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// AddActiveConn marks a connection as live.
func (c *Client) AddActiveConn(ctx context.Context, id string) error {
	return c.rdb.SAdd(ctx, activeConnsKey, id).Err()
}

// RemoveActiveConn clears a connection after termination.
func (c *Client) RemoveActiveConn(ctx context.Context, id string) error {
	return c.rdb.SRem(ctx, activeConnsKey, id).Err()
}

// ActiveConns lists every live connection id.
func (c *Client) ActiveConns(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, activeConnsKey).Result()
}

// CountActiveConns returns the number of live connections.
func (c *Client) CountActiveConns(ctx context.Context) (int64, error) {
	return c.rdb.SCard(ctx, activeConnsKey).Result()
}

// FlushAll wipes the database. Test helper.
func (c *Client) FlushAll(ctx context.Context) error {
	return c.rdb.FlushAll(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
