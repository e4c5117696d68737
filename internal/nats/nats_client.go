package nats

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// Client wraps the NATS connection that carries every outbound delivery
// between the event router and the WebSocket hub's fan-out subscription.
type Client struct {
	conn *nats.Conn
	log  logger.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewClient(ctx context.Context, url string) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("yt-sync-backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		conn: nc,
		log:  logger.FromContext(ctx).WithModule("nats"),
	}, nil
}

// Close unsubscribes everything and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil
	c.mu.Unlock()

	c.conn.Close()
}
