package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
)

// deliverSubject carries every delivery. A single subject keeps deliveries
// from one publisher strictly ordered, which is what preserves per-connection
// FIFO between a join acknowledgment and the broadcast that follows it.
const deliverSubject = "sync.deliver"

// Delivery is the internal envelope between the router and the hub. Exactly
// one of Conn or Room is set.
type Delivery struct {
	Conn    string           `json:"conn,omitempty"`
	Room    string           `json:"room,omitempty"`
	Exclude string           `json:"exclude,omitempty"`
	Type    domain.EventType `json:"type"`
	Data    json.RawMessage  `json:"data,omitempty"`
}

// SendTo publishes a delivery addressed to a single connection.
func (c *Client) SendTo(_ context.Context, conn core.ConnID, event domain.EventType, payload interface{}) error {
	return c.publish(Delivery{Conn: string(conn), Type: event}, payload)
}

// SendToRoom publishes a delivery addressed to a room, optionally excluding
// one connection from the fan-out.
func (c *Client) SendToRoom(_ context.Context, roomID string, event domain.EventType, payload interface{}, exclude core.ConnID) error {
	return c.publish(Delivery{Room: roomID, Exclude: string(exclude), Type: event}, payload)
}

func (c *Client) publish(d Delivery, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize %s payload: %w", d.Type, err)
	}
	d.Data = data

	buf, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to serialize delivery: %w", err)
	}
	return c.conn.Publish(deliverSubject, buf)
}
