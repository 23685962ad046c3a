package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erpcore/backend/internal/approval/repository"
	approvalservice "github.com/erpcore/backend/internal/approval/service"
	"github.com/erpcore/backend/internal/auth"
	"github.com/erpcore/backend/internal/cache"
	"github.com/erpcore/backend/internal/config"
	"github.com/erpcore/backend/internal/database"
	"github.com/erpcore/backend/internal/events"
	"github.com/erpcore/backend/internal/flowrun"
	"github.com/erpcore/backend/internal/notification"
	"github.com/erpcore/backend/internal/task"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
		"redis_enabled", cfg.Redis.Enabled,
		"server_port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Perform health check
	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}

	// Event publisher: Redis channels when configured, otherwise the
	// in-process bus.
	var publisher events.Publisher
	var redisPublisher *events.RedisPublisher
	if cfg.Redis.Enabled {
		redisPublisher, err = events.NewRedisPublisher(events.RedisOptions{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			ChannelPrefix: cfg.Redis.EventsPrefix,
		})
		if err != nil {
			log.Fatalf("failed to connect event publisher: %v", err)
		}
		defer func() {
			if err := redisPublisher.Close(); err != nil {
				slog.Error("failed to close event publisher", "error", err)
			}
		}()
		publisher = redisPublisher
	} else {
		publisher = events.NewBus(events.WithErrorHandler(func(event events.Event, err error) {
			slog.Error("event handler failed", "event_type", event.Type, "error", err)
		}))
	}

	// Assemble the approval engine and its collaborators
	store := repository.New(db)
	roles := auth.NewService(db)
	engine := approvalservice.NewFlowEngine(store, roles)

	opts := []approvalservice.Option{
		approvalservice.WithNotifier(notification.NewService(db)),
		approvalservice.WithTaskCreator(task.NewService(db)),
		approvalservice.WithFlowRunTracker(flowrun.NewTracker(db)),
	}
	if cfg.Redis.Enabled {
		flowCache, err := cache.NewFlowCache(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			TTL:      cfg.Redis.FlowCacheTTL,
		})
		if err != nil {
			log.Fatalf("failed to connect flow cache: %v", err)
		}
		defer func() {
			if err := flowCache.Close(); err != nil {
				slog.Error("failed to close flow cache", "error", err)
			}
		}()
		opts = append(opts, approvalservice.WithFlowCache(flowCache))
	}

	svc := approvalservice.NewApprovalService(store, engine, publisher, opts...)

	slog.Info("approval service initialized")

	// Liveness and ops endpoints only; the API transport is deployed
	// separately.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(db); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /internal/approval-stats", func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant")
		if tenantID == "" {
			http.Error(w, "missing 'tenant' query parameter", http.StatusBadRequest)
			return
		}
		stats, err := svc.GetApprovalStats(r.Context(), tenantID)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to aggregate stats: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			slog.Error("failed to encode stats response", "error", err)
		}
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown of HTTP server
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	slog.Info("server stopped")
}
