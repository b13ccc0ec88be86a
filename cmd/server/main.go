package main

import (
	"context"
	"ctchen222/FindMy/internal/api/controller"
	"ctchen222/FindMy/internal/api/middleware"
	"ctchen222/FindMy/internal/api/repository"
	"ctchen222/FindMy/internal/api/service"
	"ctchen222/FindMy/internal/config"
	"ctchen222/FindMy/internal/db"
	"ctchen222/FindMy/internal/location"
	"ctchen222/FindMy/internal/logger"
	"ctchen222/FindMy/internal/places"
	"ctchen222/FindMy/internal/server"
	"ctchen222/FindMy/internal/telemetry"
	"ctchen222/FindMy/internal/upstream"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.OtelEnabled)

	// Initialize telemetry
	if cfg.OtelEnabled {
		shutdown, err := telemetry.InitOtel(ctx, cfg.OtelCollector)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("error shutting down telemetry", "error", err)
			}
		}()
	}

	// Initialize SQLite DB
	DB, err := db.Connect(cfg.DBPath)
	if err != nil {
		return err
	}
	defer DB.Close()
	if err := db.InitializeDB(DB); err != nil {
		return err
	}

	// Create repositories
	userRepo := repository.NewUserRepository(DB)
	var sessionRepo repository.SessionRepository
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessionRepo = repository.NewRedisSessionRepository(rdb)
	default:
		slog.Warn("using in-memory sessions; sessions are lost on restart")
		sessionRepo = repository.NewMemorySessionRepository()
	}

	// Create services
	hasher, err := service.NewPasswordHasher(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	userService, err := service.NewUserService(userRepo, sessionRepo, hasher, cfg.SessionTTL)
	if err != nil {
		return err
	}

	client := upstream.NewClient(cfg.Upstream.Timeout, cfg.Upstream.UserAgent)
	resolver := location.NewResolver(client, cfg.Upstream.IPInfoURL, cfg.Upstream.NominatimURL)
	aggregator := places.NewAggregator(resolver, client, places.Endpoints{
		FoursquareURL:   cfg.Upstream.FoursquareURL,
		FoursquareKey:   cfg.Upstream.FoursquareKey,
		OverpassURL:     cfg.Upstream.OverpassURL,
		TicketmasterURL: cfg.Upstream.TicketmasterURL,
		TicketmasterKey: cfg.Upstream.TicketmasterKey,
	})

	// Create controllers
	guard := middleware.NewSessionGuard(userService, middleware.NewSessionCookie(cfg.SecretKey, cfg.SessionTTL, cfg.CookieSecure))
	userController := controller.NewUserController(userService, guard)
	placeController := controller.NewPlaceController(aggregator)

	srv, err := server.NewServer(userController, placeController, guard, cfg.TrustedProxies)
	if err != nil {
		return err
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server exiting")
	return nil
}
