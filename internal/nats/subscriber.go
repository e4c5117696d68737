package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// SubscribeDeliveries registers the hub-side handler that fans deliveries
// out to local WebSocket connections. Malformed deliveries are dropped.
func (c *Client) SubscribeDeliveries(handler func(Delivery)) error {
	sub, err := c.conn.Subscribe(deliverSubject, func(msg *nats.Msg) {
		var d Delivery
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.log.Errorf("dropping malformed delivery: %v", err)
			return
		}
		handler(d)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", deliverSubject, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}
