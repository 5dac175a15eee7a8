package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/config"
	"github.com/bobby-s-dev/weather-history/internal/connectivity"
	"github.com/bobby-s-dev/weather-history/internal/store"
	"github.com/bobby-s-dev/weather-history/pkg/client"
	"go.uber.org/zap"
)

const probeTimeoutCap = 5 * time.Second

// Components holds everything a command needs to answer queries.
type Components struct {
	Service *WeatherService
	Client  *client.OpenMeteoArchiveClient
	Store   store.LocalStore
	Checker connectivity.Checker
	// Probe is nil unless connectivity is probed.
	Probe *connectivity.Probe

	closers []func() error
}

// Build wires the archive client, local store and connectivity checker
// from cfg. Callers must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	clientConfig := client.ClientConfig{
		Timeout:        cfg.Archive.Timeout,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	archiveClient := client.NewOpenMeteoArchiveClient(client.ArchiveOptions{
		BaseURL:   cfg.Archive.URL,
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	}, clientConfig, logger)
	logger.Info("Open-Meteo archive client initialized",
		zap.String("url", cfg.Archive.URL),
		zap.Float64("latitude", cfg.Location.Latitude),
		zap.Float64("longitude", cfg.Location.Longitude))

	c := &Components{Client: archiveClient}

	localStore, err := c.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Store = localStore

	switch cfg.Connectivity.Mode {
	case connectivity.ModeOnline:
		c.Checker = connectivity.Static(true)
	case connectivity.ModeOffline:
		c.Checker = connectivity.Static(false)
	case connectivity.ModeProbe:
		c.Probe = connectivity.NewProbe(cfg.Connectivity.ProbeURL, probeTimeout(cfg), 2*cfg.Connectivity.Interval, logger)
		c.Checker = c.Probe
	default:
		c.Close()
		return nil, fmt.Errorf("unknown connectivity mode %q", cfg.Connectivity.Mode)
	}
	logger.Info("Connectivity checker initialized", zap.String("mode", cfg.Connectivity.Mode))

	c.Service = NewWeatherService(archiveClient, localStore, c.Checker, logger)
	return c, nil
}

func (c *Components) openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.LocalStore, error) {
	switch cfg.Store.Driver {
	case store.DriverMemory:
		logger.Info("Using in-memory store")
		return store.NewMemoryStore(logger), nil

	case store.DriverFile:
		fileStore, err := store.OpenFileStore(cfg.Store.FilePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		logger.Info("Using file store", zap.String("path", cfg.Store.FilePath))
		return fileStore, nil

	case store.DriverPostgres:
		db, err := store.OpenPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)

		pgStore := store.NewPostgresStore(db, logger)
		if err := pgStore.Migrate(ctx); err != nil {
			c.Close()
			return nil, err
		}
		logger.Info("Using postgres store")
		return pgStore, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (c *Components) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func probeTimeout(cfg *config.Config) time.Duration {
	if cfg.Archive.Timeout < probeTimeoutCap {
		return cfg.Archive.Timeout
	}
	return probeTimeoutCap
}
