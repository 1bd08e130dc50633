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

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/car-marketplace/internal/api"
	"github.com/terra-clan/car-marketplace/internal/auth"
	"github.com/terra-clan/car-marketplace/internal/catalog"
	"github.com/terra-clan/car-marketplace/internal/cleanup"
	"github.com/terra-clan/car-marketplace/internal/config"
	"github.com/terra-clan/car-marketplace/internal/services"
	"github.com/terra-clan/car-marketplace/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	level, _ := cfg.Log.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("starting car-marketplace",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
	)

	if err := run(cfg); err != nil {
		slog.Error("car-marketplace failed", "error", err)
		os.Exit(1)
	}

	slog.Info("car-marketplace stopped")
}

func run(cfg *config.Config) error {
	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	cat, err := generateCatalog(cfg.Catalog)
	if err != nil {
		return err
	}

	// Initialize account and session storage
	repo, err := storage.Open(initCtx, storage.Config{
		Driver: cfg.Storage.Driver,
		Postgres: storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		MigrationsDir: cfg.Database.MigrationsDir,
		Redis: storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		BoltPath: cfg.Storage.BoltPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer repo.Close()

	// Initialize service registry
	registry, err := newRegistry(cfg, repo)
	if err != nil {
		return err
	}
	defer registry.Close()

	authService := auth.NewService(repo, cat, auth.Config{
		SessionTTL: cfg.Auth.SessionTTL,
		Latency:    cfg.Auth.Latency,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	if cfg.Auth.SeedDemoUsers {
		if _, err := authService.SeedDemoUsers(initCtx, cat.Dealers(), cfg.Auth.DemoPassword); err != nil {
			return fmt.Errorf("failed to seed demo users: %w", err)
		}
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, cat, authService, registry, api.Options{
		FeaturedPageSize: cfg.Catalog.FeaturedPageSize,
		LoginRateLimit:   cfg.Auth.LoginRateLimit,
		LoginBurst:       cfg.Auth.LoginBurst,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Cancelled on SIGINT/SIGTERM or when any worker fails
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cleanup.NewCleaner(authService, cfg.Cleanup.Interval).Run(ctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down gracefully...")

		// Shutdown HTTP server with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func generateCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	var opts []catalog.Option
	if cfg.ReferenceFile != "" {
		ref, err := catalog.LoadReference(cfg.ReferenceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog reference: %w", err)
		}
		opts = append(opts, catalog.WithReference(ref))
	}

	seed := uint64(time.Now().UnixNano())
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	generator, err := catalog.NewGenerator(catalog.NewSeededRand(seed), opts...)
	if err != nil {
		return nil, err
	}
	cat := generator.Generate()

	summary := cat.Summary()
	slog.Info("catalog generated",
		"seed", seed,
		"dealers", summary["dealers"],
		"cars", summary["cars"],
		"transactions", summary["transactions"],
		"featured", summary["featured"],
	)
	return cat, nil
}

// newRegistry registers readiness probes for the storage backend in use
func newRegistry(cfg *config.Config, repo storage.Repository) (*services.Registry, error) {
	registry := services.NewRegistry()
	registry.Register("storage", services.NewCheckFunc(cfg.Storage.Driver, repo.Ping))

	switch cfg.Storage.Driver {
	case storage.DriverPostgres:
		postgresProvider, err := services.NewPostgresProvider(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres provider: %w", err)
		}
		registry.Register("postgres", postgresProvider)

	case storage.DriverRedis:
		registry.Register("redis", services.NewRedisProvider(cfg.Redis.Address, cfg.Redis.Password))
	}

	return registry, nil
}
