package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"stellarcade/internal/app"
	"stellarcade/internal/config"
	"stellarcade/internal/db"
	"stellarcade/internal/events"
	httpServer "stellarcade/internal/http"
	"stellarcade/internal/http/handlers"
	"stellarcade/internal/http/middleware"
	"stellarcade/internal/logger"
	"stellarcade/internal/migrations"
	"stellarcade/internal/repository"
	"stellarcade/internal/service"
	"stellarcade/internal/ws"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err := service.InitJWT(cfg.JWTSecret); err != nil {
		logger.Fatal("jwt init failed", "error", err)
	}

	ctx := context.Background()
	store, checks := openStore(ctx, cfg)
	defer store.Close()

	publishers := events.Fanout{events.MetricsPublisher{}}
	if rdb := middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		defer rdb.Close()
		publishers = append(publishers, events.NewRedisPublisher(rdb, cfg.EventStream, cfg.EventStreamLen))
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	hub := ws.NewHub()
	defer hub.Close()
	publishers = append(publishers, hub)

	exec := service.NewExecutor(store, publishers)
	contracts := app.NewContracts(cfg)
	if err := app.Bootstrap(ctx, exec, cfg, contracts); err != nil {
		logger.Fatal("bootstrap failed", "error", err)
	}

	h, err := handlers.NewHandler(exec, contracts, handlers.HandlerConfig{EventsPageLimit: cfg.EventsPageLimit})
	if err != nil {
		logger.Fatal("handler init failed", "error", err)
	}
	health := handlers.NewHealthHandler(cfg.Version, checks)

	gin.SetMode(gin.ReleaseMode)
	r := httpServer.NewEngine(cfg.AllowedOrigin)
	httpServer.RegisterRoutes(r, h, health, hub, exec, httpServer.RouteConfig{
		APIRateLimit:   cfg.APIRateLimit,
		APIRateWindow:  cfg.APIRateWindow,
		PlayRateLimit:  cfg.PlayRateLimit,
		PlayRateWindow: cfg.PlayRateWindow,
		AllowedOrigin:  cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, map[string]handlers.Pinger) {
	checks := map[string]handlers.Pinger{}
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool := db.MustConnect(ctx, cfg.DatabaseURL)
		applied, err := migrations.ApplyPostgres(ctx, pool)
		if err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "files", applied)
		}
		store := repository.NewPostgresStore(pool)
		checks["database"] = store
		return store, checks
	case config.StoreSQLite:
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite open failed", "path", cfg.SQLitePath, "error", err)
		}
		checks["database"] = store
		return store, checks
	default:
		logger.Warn("using in-memory store, state is lost on exit")
		return repository.NewMemoryStore(), checks
	}
}
