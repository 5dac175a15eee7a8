package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/models"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// OpenPostgres opens and pings a lib/pq connection pool sized for a
// single-record workload.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func (p *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS weather_data (
			date             TEXT PRIMARY KEY,
			max_temperature  DOUBLE PRECISION NOT NULL,
			min_temperature  DOUBLE PRECISION NOT NULL
		);
	`
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *PostgresStore) GetByDate(ctx context.Context, date string) (models.WeatherRecord, error) {
	record := models.WeatherRecord{Date: date}
	err := p.db.QueryRowContext(ctx,
		"SELECT max_temperature, min_temperature FROM weather_data WHERE date = $1",
		date,
	).Scan(&record.MaxTemperature, &record.MinTemperature)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeatherRecord{}, models.ErrRecordNotFound
	}
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("query weather_data: %w", err)
	}
	return record, nil
}

func (p *PostgresStore) Put(ctx context.Context, record models.WeatherRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO weather_data (date, max_temperature, min_temperature)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE
		SET max_temperature = EXCLUDED.max_temperature,
		    min_temperature = EXCLUDED.min_temperature`,
		record.Date, record.MaxTemperature, record.MinTemperature,
	)
	if err != nil {
		return fmt.Errorf("upsert weather_data: %w", err)
	}

	p.logger.Debug("Weather record upserted", zap.String("date", record.Date))
	return nil
}
