package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.etcd.io/bbolt"

	"github.com/alorle/tv-channels/circuitbreaker"
	"github.com/alorle/tv-channels/config"
	"github.com/alorle/tv-channels/internal/adapter/driven"
	"github.com/alorle/tv-channels/internal/adapter/driver"
	"github.com/alorle/tv-channels/internal/application"
	"github.com/alorle/tv-channels/internal/logo"
	ports "github.com/alorle/tv-channels/internal/port/driven"
)

// catalogStore is the pair of repositories backed by one store.
type catalogStore struct {
	channels ports.ChannelRepository
	programs ports.ProgramRepository
	close    func() error
}

func openCatalogStore(cfg *config.Config) (*catalogStore, error) {
	switch cfg.Catalog.Store {
	case config.StoreMemory:
		db, err := driven.NewCatalogMemDB()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory catalog: %w", err)
		}
		channels, err := driven.NewChannelMemDBRepository(db)
		if err != nil {
			return nil, err
		}
		programs, err := driven.NewProgramMemDBRepository(db)
		if err != nil {
			return nil, err
		}
		return &catalogStore{channels: channels, programs: programs, close: func() error { return nil }}, nil

	default:
		if dir := filepath.Dir(cfg.Catalog.DBPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := bbolt.Open(cfg.Catalog.DBPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		channels, err := driven.NewChannelBoltDBRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create channel repository: %w", err)
		}
		programs, err := driven.NewProgramBoltDBRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create program repository: %w", err)
		}
		return &catalogStore{channels: channels, programs: programs, close: db.Close}, nil
	}
}

// newRemoteBackends builds both logo backends, each behind its own circuit breaker.
// Which one is queried is decided per request by the backend config.
func newRemoteBackends(cfg *config.Config, logger *slog.Logger) []application.RemoteBackend {
	newBreaker := func(name string) circuitbreaker.CircuitBreaker {
		return circuitbreaker.New(circuitbreaker.Config{
			Name:             name,
			FailureThreshold: cfg.Resilience.CBFailureThreshold,
			Timeout:          cfg.Resilience.CBTimeout,
			HalfOpenRequests: cfg.Resilience.CBHalfOpenRequests,
			Logger:           logger,
			IsFailure:        application.IsBackendFailure,
		})
	}

	return []application.RemoteBackend{
		{
			Kind:    logo.BackendMirakurun,
			Source:  driven.NewMirakurunHTTPAdapter(cfg.Backend.Timeout, logger),
			Breaker: newBreaker(string(logo.SourceMirakurun)),
		},
		{
			Kind:    logo.BackendEDCB,
			Source:  driven.NewEDCBCtrlCmdAdapter(cfg.Backend.Timeout, logger),
			Breaker: newBreaker(string(logo.SourceEDCB)),
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Create structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting tv-channels", "config", cfg)

	store, err := openCatalogStore(cfg)
	if err != nil {
		log.Fatalf("failed to open catalog store: %v", err)
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Error("error closing catalog store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog sync: once on boot, then on schedule
	syncService := application.NewCatalogSyncService(
		driven.NewCatalogYAMLSource(cfg.Catalog.SeedFile),
		store.channels,
		store.programs,
		logger,
	)
	if err := syncService.Sync(ctx); err != nil {
		logger.Error("initial catalog sync failed", "seed_file", cfg.Catalog.SeedFile, "error", err)
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(cfg.Catalog.ReloadSchedule, func() {
		if err := syncService.Sync(ctx); err != nil {
			logger.Error("scheduled catalog sync failed", "error", err)
		}
	}); err != nil {
		log.Fatalf("invalid catalog reload schedule %q: %v", cfg.Catalog.ReloadSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Logo resolution
	backend := cfg.BackendConfig()
	backends := newRemoteBackends(cfg, logger)
	logoStore := driven.NewLogoFSStore(os.DirFS(cfg.Logos.Dir), logger)
	resolver := application.NewDefaultLogoResolver(logoStore, store.channels, backends, logger)

	// Create application services
	channelService := application.NewChannelService(store.channels, store.programs)
	logoService := application.NewLogoService(store.channels, logoStore, resolver, backend, logger)
	healthService := application.NewHealthService(store.channels, backends, backend)

	openAPIDoc, err := driver.LoadOpenAPI(ctx)
	if err != nil {
		log.Fatalf("failed to load API description: %v", err)
	}
	validateRequest, err := driver.NewRequestValidator(ctx)
	if err != nil {
		log.Fatalf("failed to create request validator: %v", err)
	}

	// Create HTTP handlers
	channelHandler := driver.NewChannelHTTPHandler(channelService, logoService, cfg.Logos.MaxAge, logger)
	healthHandler := driver.NewHealthHTTPHandler(healthService, cfg.Resilience.HealthCheckTimeout)
	openAPIHandler := driver.NewOpenAPIHTTPHandler(openAPIDoc)

	// Register API routes
	apiMux := http.NewServeMux()
	apiMux.Handle("/channels", channelHandler)
	apiMux.Handle("/channels/", channelHandler)
	apiMux.Handle("/health", healthHandler)

	// Root router: documented API under /api/, its description and metrics beside it
	rootMux := http.NewServeMux()
	rootMux.Handle("/api/", http.StripPrefix("/api", validateRequest(apiMux)))
	rootMux.Handle("/api/openapi.json", openAPIHandler)
	rootMux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      driver.NewRequestLogger(logger, rootMux),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
