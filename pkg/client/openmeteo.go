package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-history/internal/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1"
	DefaultLatitude   = 52.52
	DefaultLongitude  = 13.41

	archiveEndpoint = "/era5"
	dailyVariables  = "temperature_2m_max,temperature_2m_min"
)

// OpenMeteoArchiveClient fetches daily temperature series from the
// Open-Meteo historical archive for a fixed reference point.
type OpenMeteoArchiveClient struct {
	*BaseClient
	baseURL   string
	latitude  float64
	longitude float64
}

type ArchiveOptions struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
}

type OpenMeteoArchiveResponse struct {
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	GenerationTimeMs     float64 `json:"generationtime_ms"`
	UTCOffsetSeconds     int     `json:"utc_offset_seconds"`
	Timezone             string  `json:"timezone"`
	TimezoneAbbreviation string  `json:"timezone_abbreviation"`
	Elevation            float64 `json:"elevation"`
	Daily                *struct {
		Time              []string   `json:"time"`
		Temperature2MMax  []*float64 `json:"temperature_2m_max"`
		Temperature2MMin  []*float64 `json:"temperature_2m_min"`
		Temperature2MMean []*float64 `json:"temperature_2m_mean"`
	} `json:"daily"`
	DailyUnits struct {
		Time             string `json:"time"`
		Temperature2MMax string `json:"temperature_2m_max"`
		Temperature2MMin string `json:"temperature_2m_min"`
	} `json:"daily_units"`
}

type openMeteoErrorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func NewOpenMeteoArchiveClient(opts ArchiveOptions, config ClientConfig, logger *zap.Logger) *OpenMeteoArchiveClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}

	return &OpenMeteoArchiveClient{
		BaseClient: NewBaseClient("openmeteo-archive", config, logger),
		baseURL:    baseURL,
		latitude:   opts.Latitude,
		longitude:  opts.Longitude,
	}
}

func (c *OpenMeteoArchiveClient) Latitude() float64  { return c.latitude }
func (c *OpenMeteoArchiveClient) Longitude() float64 { return c.longitude }

// FetchRange returns the daily max/min series for [startDate, endDate].
// startDate <= endDate is the caller's responsibility. Every failure is
// reported as *models.FetchError.
func (c *OpenMeteoArchiveClient) FetchRange(ctx context.Context, startDate, endDate string) (*models.DailySeries, error) {
	requestURL := c.buildURL(startDate, endDate)

	data, err := c.Get(ctx, requestURL)
	if err != nil {
		return nil, c.fetchError(err)
	}

	var response OpenMeteoArchiveResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, &models.FetchError{
			Message: fmt.Sprintf("failed to parse archive response: %v", err),
			Err:     err,
		}
	}

	if response.Daily == nil {
		return nil, &models.FetchError{Message: "archive response has no daily section"}
	}

	series := &models.DailySeries{
		Time:           response.Daily.Time,
		MaxTemperature: response.Daily.Temperature2MMax,
		MinTemperature: response.Daily.Temperature2MMin,
	}

	c.logger.Debug("Archive range fetched",
		zap.String("start_date", startDate),
		zap.String("end_date", endDate),
		zap.Int("days", series.Len()))

	return series, nil
}

func (c *OpenMeteoArchiveClient) buildURL(startDate, endDate string) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	values.Set("start_date", startDate)
	values.Set("end_date", endDate)
	values.Set("daily", dailyVariables)

	return c.baseURL + archiveEndpoint + "?" + values.Encode()
}

func (c *OpenMeteoArchiveClient) fetchError(err error) *models.FetchError {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		message := fmt.Sprintf("archive returned status %d", statusErr.StatusCode)

		var apiErr openMeteoErrorResponse
		if jsonErr := json.Unmarshal(statusErr.Body, &apiErr); jsonErr == nil && apiErr.Reason != "" {
			message = apiErr.Reason
		}

		return &models.FetchError{
			Message:    message,
			StatusCode: statusErr.StatusCode,
			Err:        err,
		}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &models.FetchError{
			Message: "archive temporarily unavailable (circuit open)",
			Err:     err,
		}
	}

	return &models.FetchError{
		Message: fmt.Sprintf("archive request failed: %v", err),
		Err:     err,
	}
}
