package status

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/metrics"
	"github.com/JPKrishna28/yt-sync-backend/internal/redis"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// Config wires the read-only diagnostics surface. Nothing here writes into
// the core.
type Config struct {
	RootCtx  context.Context
	Dir      *core.Directory
	Registry *redis.Client
	Metrics  *metrics.Metrics
	WS       http.HandlerFunc
}

// NewRouter builds the HTTP surface: the WebSocket endpoint, a liveness
// probe, the room snapshot dump, and the Prometheus scrape endpoint.
func NewRouter(cfg Config) http.Handler {
	log := logger.FromContext(cfg.RootCtx).WithModule("status")

	r := chi.NewRouter()
	r.Get("/ws", cfg.WS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
		snapshot := cfg.Dir.Snapshot()

		var active int64
		if cfg.Registry != nil {
			n, err := cfg.Registry.CountActiveConns(req.Context())
			if err != nil {
				log.Errorf("failed to count active connections: %v", err)
			} else {
				active = n
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"room_count":         len(snapshot),
			"rooms":              snapshot,
			"active_connections": active,
		})
	})

	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	return r
}
