package websocket

import (
	"context"

	gws "github.com/gorilla/websocket"

	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

const sendBufferSize = 256

// Connection is one client's WebSocket session. One read pump and one write
// pump per connection give each side of the socket a single owner, which is
// also what keeps that connection's events in submission order.
type Connection struct {
	ID   core.ConnID
	ws   *gws.Conn
	send chan domain.Envelope
	hub  *Hub
	log  logger.Logger
}

func NewConnection(id core.ConnID, ws *gws.Conn, hub *Hub) *Connection {
	return &Connection{
		ID:   id,
		ws:   ws,
		send: make(chan domain.Envelope, sendBufferSize),
		hub:  hub,
		log:  hub.log.WithFields(map[string]interface{}{"conn": string(id)}),
	}
}

// ReadPump decodes inbound envelopes and hands them to the router, one at a
// time. A read error of any kind means the connection is gone; unregistering
// it triggers the presence cleanup exactly once.
func (c *Connection) ReadPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-ctx.Done():
		}
		c.ws.Close()
	}()

	for {
		var env domain.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				c.log.Warnf("read error: %v", err)
			}
			return
		}
		c.hub.metrics.EventIn(string(env.Type))
		c.hub.router.Route(ctx, c.ID, env.Type, env.Data)
	}
}

// WritePump drains the send buffer onto the socket until the hub closes it.
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for env := range c.send {
		if err := c.ws.WriteJSON(env); err != nil {
			c.log.Warnf("write error: %v", err)
			return
		}
	}
}
