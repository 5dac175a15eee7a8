package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/config"
	"github.com/bobby-s-dev/weather-history/internal/connectivity"
	"github.com/bobby-s-dev/weather-history/internal/store"
	"go.uber.org/zap"
)

func testConfig(driver, mode string) *config.Config {
	cfg := &config.Config{}
	cfg.Archive.URL = "http://127.0.0.1:1"
	cfg.Archive.Timeout = time.Second
	cfg.Location.Latitude = 52.52
	cfg.Location.Longitude = 13.41
	cfg.Store.Driver = driver
	cfg.Connectivity.Mode = mode
	cfg.Connectivity.ProbeURL = cfg.Archive.URL
	cfg.Connectivity.Interval = time.Minute
	cfg.CircuitBreaker.Threshold = 3
	cfg.CircuitBreaker.Timeout = time.Second
	return cfg
}

func TestBuild_MemoryOffline(t *testing.T) {
	c, err := Build(context.Background(), testConfig(store.DriverMemory, connectivity.ModeOffline), zap.NewNop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()

	if _, ok := c.Store.(*store.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", c.Store)
	}
	if c.Checker.IsOnline(context.Background()) {
		t.Error("offline mode should report offline")
	}
	if c.Probe != nil {
		t.Error("probe should only be built in probe mode")
	}
	if c.Client.Latitude() != 52.52 || c.Client.Longitude() != 13.41 {
		t.Errorf("client location: got %v,%v", c.Client.Latitude(), c.Client.Longitude())
	}

	result, err := c.Service.Query(context.Background(), "2020-06-15", time.Now())
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.Found {
		t.Errorf("empty store should yield NotFound, got %+v", result)
	}
}

func TestBuild_FileProbe(t *testing.T) {
	cfg := testConfig(store.DriverFile, connectivity.ModeProbe)
	cfg.Store.FilePath = filepath.Join(t.TempDir(), "weather.toml")

	c, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()

	if _, ok := c.Store.(*store.FileStore); !ok {
		t.Errorf("expected file store, got %T", c.Store)
	}
	if c.Probe == nil || c.Checker != connectivity.Checker(c.Probe) {
		t.Error("probe mode should use the probe as checker")
	}
}

func TestBuild_UnknownDriver(t *testing.T) {
	if _, err := Build(context.Background(), testConfig("sqlite", connectivity.ModeOnline), zap.NewNop()); err == nil {
		t.Error("expected error for unknown store driver")
	}
}

func TestBuild_UnknownMode(t *testing.T) {
	if _, err := Build(context.Background(), testConfig(store.DriverMemory, "sometimes"), zap.NewNop()); err == nil {
		t.Error("expected error for unknown connectivity mode")
	}
}
