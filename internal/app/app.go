package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andymarkow/bonustier/internal/config"
	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/logger"
	"github.com/andymarkow/bonustier/internal/server"
	"github.com/andymarkow/bonustier/internal/storage"
	"github.com/andymarkow/bonustier/internal/storage/inmemory"
	"github.com/andymarkow/bonustier/internal/storage/pgstorage"
)

type Application struct {
	log    *slog.Logger
	server *server.Server
	store  storage.Storage
}

func New() (*Application, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}

	logLevel, err := logger.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger.ParseLogLevel: %w", err)
	}

	logg := logger.NewLogger(
		logger.WithLevel(logLevel),
		logger.WithFormat(logger.LogFormatJSON),
		logger.WithAddSource(false),
	)

	store, err := newStorage(cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("newStorage: %w", err)
	}

	catalog, err := bootstrapCatalog(context.Background(), store)
	if err != nil {
		return nil, fmt.Errorf("bootstrapCatalog: %w", err)
	}

	srv := server.NewServer(store, catalog,
		server.WithServerAddr(cfg.ServerAddr),
		server.WithJWTSecretKey([]byte(cfg.JWTSecretKey)),
		server.WithJWTTokenTTL(cfg.JWTTokenTTL),
		server.WithLogger(logg),
	)

	return &Application{
		log:    logg,
		server: srv,
		store:  store,
	}, nil
}

func newStorage(databaseURI string) (storage.Storage, error) {
	if databaseURI == "" {
		return storage.NewStorage(inmemory.NewStorage()), nil
	}

	pgstore, err := pgstorage.NewStorage(databaseURI)
	if err != nil {
		return nil, fmt.Errorf("pgstorage.NewStorage: %w", err)
	}

	if err := pgstore.Bootstrap(context.Background()); err != nil {
		return nil, fmt.Errorf("pgstorage.Bootstrap: %w", err)
	}

	return storage.NewStorage(pgstore), nil
}

// bootstrapCatalog seeds the tier catalog once at startup and loads it into
// an immutable in-process copy shared by all request handlers.
func bootstrapCatalog(ctx context.Context, store storage.Storage) (*tiers.Catalog, error) {
	if err := store.SeedTiers(ctx, tiers.DefaultTiers()); err != nil {
		return nil, fmt.Errorf("storage.SeedTiers: %w", err)
	}

	tt, err := store.ListTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.ListTiers: %w", err)
	}

	catalog, err := tiers.NewCatalog(tt)
	if err != nil {
		return nil, fmt.Errorf("tiers.NewCatalog: %w", err)
	}

	return catalog, nil
}

func (a *Application) Run() error {
	errChan := make(chan error, 1)

	go func() {
		if err := a.server.Start(); err != nil {
			errChan <- fmt.Errorf("server.Start: %w", err)
		}
	}()

	// Graceful shutdown handler
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err

	case <-quit:
		a.log.Info("Gracefully shutting down application...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			a.log.Error("server.Shutdown", slog.Any("error", err))
		}

		if err := a.store.Close(); err != nil {
			a.log.Error("storage.Close", slog.Any("error", err))
		}

		return nil
	}
}
