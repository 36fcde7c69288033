// @title happymemories API
// @version 1.0
// @description Events, hosts and RSVPs.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"happymemories/config"
	_ "happymemories/docs"
	"happymemories/internal/adapters/auth"
	deliveryhttp "happymemories/internal/delivery/http"
	"happymemories/internal/delivery/http/controllers"
	"happymemories/internal/domain"
	"happymemories/internal/metrics"
	"happymemories/internal/repository/memory"
	"happymemories/internal/repository/mongodb"
	"happymemories/internal/repository/postgres"
	"happymemories/internal/services"
)

// storage is the backend chosen by STORAGE_DRIVER.
type storage struct {
	events domain.EventRepository
	rsvps  domain.RsvpRepository
	tx     domain.Transactor
	close  func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger()
	logger.Info("Starting happymemories API server", "environment", cfg.Environment, "storage", cfg.StorageDriver)

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTP(prometheus.DefaultRegisterer)

	eventService := services.NewEventService(store.events, store.rsvps, store.tx, logger, recorder, services.EventServiceConfig{
		Timeout:    cfg.StorageTimeout,
		RetryDelay: cfg.StorageRetryDelay,
	})

	router := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, eventService),
		controllers.NewAttendeeController(logger, eventService),
		deliveryhttp.RouterConfig{
			Verifier:       auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer),
			Logger:         logger,
			HTTPMetrics:    httpMetrics,
			MetricsHandler: promhttp.Handler(),
			AllowedOrigins: cfg.AllowedOrigins,
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := store.close(shutdownCtx); err != nil {
		logger.Error("Error closing storage", "error", err)
	}

	logger.Info("Server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DBUrl, cfg.StorageTimeout)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("Connected to Postgres successfully")
		return &storage{
			events: postgres.NewEventRepository(db),
			rsvps:  postgres.NewRsvpRepository(db),
			tx:     postgres.NewTransactor(db),
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.StorageTimeout)
		if err != nil {
			return nil, err
		}
		store := mongodb.NewStore(client.Database(cfg.MongoDatabase))
		indexCtx, cancel := context.WithTimeout(ctx, cfg.StorageTimeout)
		defer cancel()
		if err := store.EnsureIndexes(indexCtx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDatabase)
		return &storage{
			events: store.Events(),
			rsvps:  store.Rsvps(),
			close:  client.Disconnect,
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			events: store.Events(),
			rsvps:  store.Rsvps(),
			close:  func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
