package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/redis"
	"github.com/JPKrishna28/yt-sync-backend/internal/websocket"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production.
	},
}

// HandleWebSocket upgrades the request, mints a session id, and starts the
// connection's pumps. The id is the client's identity for its whole session.
func HandleWebSocket(rootCtx context.Context, hub *websocket.Hub, registry *redis.Client) http.HandlerFunc {
	log := logger.FromContext(rootCtx).WithModule("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("upgrade error: %v", err)
			return
		}

		id := core.ConnID(uuid.NewString())
		if err := registry.AddActiveConn(rootCtx, string(id)); err != nil {
			log.Errorf("failed to record %s as active: %v", id, err)
		}

		client := websocket.NewConnection(id, conn, hub)
		hub.Register <- client
		log.Infof("new connection %s from %s", id, conn.RemoteAddr())

		go client.ReadPump(rootCtx)
		go client.WritePump()
	}
}
