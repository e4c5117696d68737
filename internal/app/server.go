package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JPKrishna28/yt-sync-backend/api/status"
	"github.com/JPKrishna28/yt-sync-backend/api/ws"
	"github.com/JPKrishna28/yt-sync-backend/config"
	"github.com/JPKrishna28/yt-sync-backend/internal/core"
	"github.com/JPKrishna28/yt-sync-backend/internal/metrics"
	"github.com/JPKrishna28/yt-sync-backend/internal/nats"
	"github.com/JPKrishna28/yt-sync-backend/internal/redis"
	"github.com/JPKrishna28/yt-sync-backend/internal/websocket"
	"github.com/JPKrishna28/yt-sync-backend/pkg/logger"
)

// App holds every component of the relay server and owns their lifecycle.
type App struct {
	cfg         config.Config
	logger      logger.Logger
	natsClient  *nats.Client
	redisClient *redis.Client
	hub         *websocket.Hub
	httpServer  *http.Server
	rootCtx     context.Context
	cancel      context.CancelFunc
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	natsClient, err := nats.NewClient(rootCtx, cfg.NATSURL)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	redisClient, err := redis.NewClient(rootCtx, cfg.RedisURL)
	if err != nil {
		rootCancel()
		natsClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m := metrics.New()
	dir := core.NewDirectory(cfg.RoomCapacity)
	m.RegisterOpenRooms(func() float64 {
		return float64(len(dir.Snapshot()))
	})

	router := core.NewRouter(dir, natsClient, baseLogger)
	presence := core.NewPresence(dir, natsClient, baseLogger)
	hub := websocket.NewHub(rootCtx, dir, router, presence, redisClient, m)

	if err := natsClient.SubscribeDeliveries(hub.Dispatch); err != nil {
		rootCancel()
		redisClient.Close()
		natsClient.Close()
		return nil, fmt.Errorf("failed to subscribe to deliveries: %w", err)
	}
	go hub.Run(rootCtx)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: status.NewRouter(status.Config{
			RootCtx:  rootCtx,
			Dir:      dir,
			Registry: redisClient,
			Metrics:  m,
			WS:       ws.HandleWebSocket(rootCtx, hub, redisClient),
		}),
	}

	app := &App{
		cfg:         cfg,
		logger:      log,
		natsClient:  natsClient,
		redisClient: redisClient,
		hub:         hub,
		httpServer:  httpServer,
		rootCtx:     rootCtx,
		cancel:      rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal.
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port":          a.cfg.Port,
		"room_capacity": a.cfg.RoomCapacity,
	})

	log.Infof("Starting application server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatalf("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections.
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})

	log.Infof("Initiating graceful shutdown")

	// Cancel root context first so the hub stops accepting lifecycle events.
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("HTTP server shutdown error")
	}

	log.Infof("Closing NATS connection")
	a.natsClient.Close()

	log.Infof("Closing Redis connection")
	if err := a.redisClient.Close(); err != nil {
		log.Errorf("Redis close error: %v", err)
	}

	log.Infof("Shutdown completed successfully")
	return nil
}
