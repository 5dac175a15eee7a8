package store

import (
	"context"
	"fmt"

	"github.com/bobby-s-dev/weather-history/internal/models"
)

// LocalStore persists at most one WeatherRecord per date.
type LocalStore interface {
	// GetByDate returns models.ErrRecordNotFound when no record exists.
	GetByDate(ctx context.Context, date string) (models.WeatherRecord, error)
	// Put inserts the record or replaces the one stored under the same date.
	Put(ctx context.Context, record models.WeatherRecord) error
}

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

func validateRecord(record models.WeatherRecord) error {
	if _, err := models.ParseDate(record.Date); err != nil {
		return fmt.Errorf("invalid record key: %w", err)
	}
	return nil
}
