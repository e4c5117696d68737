package websocket

import (
	"context"
	"sync"

	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/domain"
	"github.com/JPKrishna28/yt-sync-backend/internal/metrics"
	"github.com/JPKrishna28/yt-sync-backend/internal/nats"
	"github.com/JPKrishna28/yt-sync-backend/internal/redis"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// Hub owns the live WebSocket connections and fans deliveries out to them.
// It resolves room scopes through the directory; the unregister path is the
// single trigger for presence cleanup, so a dropped connection leaves every
// room exactly once.
type Hub struct {
	mu      sync.RWMutex
	clients map[core.ConnID]*Connection

	dir      *core.Directory
	router   *core.Router
	presence *core.Presence
	registry *redis.Client
	metrics  *metrics.Metrics
	log      logger.Logger

	Register   chan *Connection
	Unregister chan *Connection
}

func NewHub(ctx context.Context, dir *core.Directory, router *core.Router, presence *core.Presence, registry *redis.Client, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[core.ConnID]*Connection),
		dir:        dir,
		router:     router,
		presence:   presence,
		registry:   registry,
		metrics:    m,
		log:        logger.FromContext(ctx).WithModule("hub"),
		Register:   make(chan *Connection),
		Unregister: make(chan *Connection),
	}
}

// Run processes connection lifecycle events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case conn := <-h.Register:
			h.addClient(conn)
		case conn := <-h.Unregister:
			h.removeClient(ctx, conn)
		}
	}
}

func (h *Hub) addClient(conn *Connection) {
	h.mu.Lock()
	h.clients[conn.ID] = conn
	h.mu.Unlock()
	h.metrics.ConnOpened()
}

func (h *Hub) removeClient(ctx context.Context, conn *Connection) {
	h.mu.Lock()
	cur, exists := h.clients[conn.ID]
	if !exists || cur != conn {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn.ID)
	// Closed under the write lock so Dispatch can never send on a closed
	// channel: deliveries hold the read lock for the whole send.
	close(conn.send)
	h.mu.Unlock()

	h.metrics.ConnClosed()

	// Presence runs after the connection is gone from the client map, so
	// the departing socket can never receive its own leave notification.
	h.presence.Disconnect(ctx, conn.ID)

	if h.registry != nil {
		if err := h.registry.RemoveActiveConn(ctx, string(conn.ID)); err != nil {
			h.log.Errorf("failed to clear %s from active set: %v", conn.ID, err)
		}
	}
	h.log.Infof("connection %s closed", conn.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		close(conn.send)
		conn.ws.Close()
		delete(h.clients, id)
	}
}

// Dispatch resolves one delivery to its target connections. Deliveries for
// unknown connections or empty rooms vanish silently.
func (h *Hub) Dispatch(d nats.Delivery) {
	env := domain.Envelope{Type: d.Type, Data: d.Data}
	h.metrics.EventOut(string(d.Type))

	if d.Conn != "" {
		h.deliver(core.ConnID(d.Conn), env)
		return
	}

	exclude := core.ConnID(d.Exclude)
	for _, id := range h.dir.MembersOf(d.Room) {
		if id == exclude {
			continue
		}
		h.deliver(id, env)
	}
}

func (h *Hub) deliver(id core.ConnID, env domain.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn := h.clients[id]
	if conn == nil {
		return
	}

	select {
	case conn.send <- env:
	default:
		// Slow consumer; drop the event rather than stall the fan-out.
		h.log.Warnf("dropping %s for %s: send buffer full", env.Type, id)
	}
}
