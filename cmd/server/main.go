package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/api"
	"github.com/bobby-s-dev/weather-history/internal/config"
	"github.com/bobby-s-dev/weather-history/internal/scheduler"
	"github.com/bobby-s-dev/weather-history/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger, err = config.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		zap.L().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting Weather History Service")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	components, err := services.Build(startupCtx, cfg, logger)
	startupCancel()
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer components.Close()

	var connectivityScheduler *scheduler.Scheduler
	if components.Probe != nil {
		connectivityScheduler = scheduler.NewScheduler(components.Probe, cfg.Connectivity.Interval, logger)
		if err := connectivityScheduler.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler(logger),
	})

	handlerOptions := api.HandlerOptions{
		Location: api.Location{
			Latitude:  components.Client.Latitude(),
			Longitude: components.Client.Longitude(),
		},
		StoreDriver: cfg.Store.Driver,
	}
	if connectivityScheduler != nil {
		handlerOptions.Connectivity = connectivityScheduler
	}

	handler := api.NewHandler(components.Service, components.Checker, handlerOptions, logger)
	api.SetupRoutes(app, handler, logger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if connectivityScheduler != nil {
		connectivityScheduler.Stop()
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
