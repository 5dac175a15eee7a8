// Command weather-query looks up the daily maximum and minimum temperature
// for one date at the configured location.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/config"
	"github.com/bobby-s-dev/weather-history/internal/connectivity"
	"github.com/bobby-s-dev/weather-history/internal/models"
	"github.com/bobby-s-dev/weather-history/internal/services"
	"go.uber.org/zap"
)

func main() {
	date := flag.String("date", "", "date to look up (YYYY-MM-DD)")
	offline := flag.Bool("offline", false, "answer from the local store only")
	flag.Parse()

	if *date == "" {
		fmt.Fprintln(os.Stderr, "usage: weather-query -date YYYY-MM-DD [-offline]")
		os.Exit(2)
	}

	os.Exit(run(*date, *offline, os.Stdout))
}

func run(date string, offline bool, out io.Writer) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	if offline {
		cfg.Connectivity.Mode = connectivity.ModeOffline
	}

	// The CLI stays quiet unless asked otherwise.
	level := cfg.Server.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "error"
	}
	logger, err := config.NewLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	components, err := services.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize services", zap.Error(err))
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return 1
	}
	defer components.Close()

	result, err := components.Service.Query(ctx, date, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrInvalidDateFormat) {
			fmt.Fprintln(os.Stderr, "Invalid date format. Use YYYY-MM-DD.")
			return 2
		}
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		return 1
	}

	printResult(out, result)
	return 0
}

func printResult(out io.Writer, result models.TemperatureResult) {
	if !result.Found {
		fmt.Fprintln(out, "Max Temperature: -")
		fmt.Fprintln(out, "Min Temperature: -")
		return
	}
	fmt.Fprintf(out, "Max Temperature: %.1f°C\n", result.MaxTemperature)
	fmt.Fprintf(out, "Min Temperature: %.1f°C\n", result.MinTemperature)
}
