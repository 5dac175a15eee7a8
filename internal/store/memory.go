package store

import (
	"context"
	"sync"

	"github.com/bobby-s-dev/weather-history/internal/models"
	"go.uber.org/zap"
)

// MemoryStore keeps records in a map for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.WeatherRecord
	logger  *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.WeatherRecord),
		logger:  logger,
	}
}

func (s *MemoryStore) GetByDate(_ context.Context, date string) (models.WeatherRecord, error) {
	s.mu.RLock()
	record, exists := s.records[date]
	s.mu.RUnlock()

	if !exists {
		return models.WeatherRecord{}, models.ErrRecordNotFound
	}
	return record, nil
}

func (s *MemoryStore) Put(_ context.Context, record models.WeatherRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	s.records[record.Date] = record
	s.mu.Unlock()

	s.logger.Debug("Weather record stored",
		zap.String("date", record.Date),
		zap.Float64("max_temperature", record.MaxTemperature),
		zap.Float64("min_temperature", record.MinTemperature))

	return nil
}
