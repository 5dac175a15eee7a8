package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-history/internal/connectivity"
	"github.com/bobby-s-dev/weather-history/internal/models"
	"github.com/bobby-s-dev/weather-history/internal/store"
	"go.uber.org/zap"
)

const averageYears = 10

type WeatherClient interface {
	FetchRange(ctx context.Context, startDate, endDate string) (*models.DailySeries, error)
}

// WeatherService answers temperature queries for a single date, choosing
// between the remote archive, the local store and the ten-year average.
type WeatherService struct {
	client       WeatherClient
	store        store.LocalStore
	connectivity connectivity.Checker
	logger       *zap.Logger

	mu    sync.Mutex
	stats QueryStats
}

type QueryStats struct {
	Queries        int       `json:"queries"`
	ArchiveHits    int       `json:"archive_hits"`
	LocalHits      int       `json:"local_hits"`
	Averages       int       `json:"averages"`
	NotFound       int       `json:"not_found"`
	InvalidInput   int       `json:"invalid_input"`
	LastQueryAt    time.Time `json:"last_query_at"`
	LastQueryDate  string    `json:"last_query_date,omitempty"`
	LastFetchError string    `json:"last_fetch_error,omitempty"`
}

func NewWeatherService(client WeatherClient, localStore store.LocalStore, checker connectivity.Checker, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		client:       client,
		store:        localStore,
		connectivity: checker,
		logger:       logger,
	}
}

// Query returns the temperature pair for dateString. today decides whether
// the date lies in the future and which decade the average covers. The
// only returned error is models.ErrInvalidDateFormat; every other failure
// degrades to a NotFound result.
func (s *WeatherService) Query(ctx context.Context, dateString string, today time.Time) (models.TemperatureResult, error) {
	date, err := models.ParseDate(dateString)
	if err != nil {
		s.record(func(st *QueryStats) { st.InvalidInput++ })
		return models.TemperatureResult{}, err
	}

	online := s.connectivity.IsOnline(ctx)

	s.logger.Debug("Temperature query",
		zap.String("date", dateString),
		zap.Bool("online", online))

	var result models.TemperatureResult
	switch {
	case !online:
		result = s.queryLocal(ctx, dateString)
	case date.After(models.CalendarDay(today)):
		max, min := s.TenYearAverage(ctx, today.Year())
		result = models.Found(dateString, max, min, models.SourceTenYearAverage)
	default:
		result = s.queryArchive(ctx, dateString)
	}

	s.record(func(st *QueryStats) {
		st.Queries++
		st.LastQueryAt = time.Now()
		st.LastQueryDate = dateString
		if !result.Found {
			st.NotFound++
			return
		}
		switch result.Source {
		case models.SourceArchive:
			st.ArchiveHits++
		case models.SourceLocal:
			st.LocalHits++
		case models.SourceTenYearAverage:
			st.Averages++
		}
	})

	return result, nil
}

// queryArchive fetches a single past day and persists it. A failed fetch
// is NotFound even when the store holds a record for the date.
func (s *WeatherService) queryArchive(ctx context.Context, date string) models.TemperatureResult {
	series, err := s.client.FetchRange(ctx, date, date)
	if err != nil {
		s.logger.Warn("Failed to fetch weather data",
			zap.String("date", date),
			zap.Error(err))
		s.record(func(st *QueryStats) { st.LastFetchError = err.Error() })
		return models.NotFound(date)
	}

	// absent values become 0.0
	max, min := series.FirstDay()

	record := models.WeatherRecord{
		Date:           date,
		MaxTemperature: max,
		MinTemperature: min,
	}
	if err := s.store.Put(ctx, record); err != nil {
		s.logger.Error("Failed to persist weather record",
			zap.String("date", date),
			zap.Error(err))
	}

	return models.Found(date, max, min, models.SourceArchive)
}

func (s *WeatherService) queryLocal(ctx context.Context, date string) models.TemperatureResult {
	record, err := s.store.GetByDate(ctx, date)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			s.logger.Info("No data available in the local store", zap.String("date", date))
		} else {
			s.logger.Error("Local store lookup failed",
				zap.String("date", date),
				zap.Error(err))
		}
		return models.NotFound(date)
	}

	return models.Found(date, record.MaxTemperature, record.MinTemperature, models.SourceLocal)
}

// TenYearAverage averages the yearly extremes of the ten calendar years
// before currentYear: the highest daily max and the lowest daily min of
// each successfully fetched year, divided by the number of such years.
// Years that fail to fetch are skipped. Fetches run sequentially.
func (s *WeatherService) TenYearAverage(ctx context.Context, currentYear int) (float64, float64) {
	var (
		totalMax float64
		totalMin float64
		years    int
	)

	for year := currentYear - averageYears; year < currentYear; year++ {
		start := models.FormatDate(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
		end := models.FormatDate(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))

		series, err := s.client.FetchRange(ctx, start, end)
		if err != nil {
			s.logger.Warn("Failed to fetch historical weather data",
				zap.Int("year", year),
				zap.Error(err))
			continue
		}

		totalMax += series.HighestMax()
		totalMin += series.LowestMin()
		years++
	}

	if years == 0 {
		s.logger.Warn("No historical years available for average", zap.Int("current_year", currentYear))
		return 0, 0
	}

	averageMax := totalMax / float64(years)
	averageMin := totalMin / float64(years)

	s.logger.Debug("Ten-year average computed",
		zap.Int("current_year", currentYear),
		zap.Int("years", years),
		zap.Float64("average_max", averageMax),
		zap.Float64("average_min", averageMin))

	return averageMax, averageMin
}

func (s *WeatherService) record(update func(*QueryStats)) {
	s.mu.Lock()
	update(&s.stats)
	s.mu.Unlock()
}

func (s *WeatherService) GetStats() QueryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
