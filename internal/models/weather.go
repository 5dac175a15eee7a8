package models

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrRecordNotFound    = errors.New("no local weather data for date")
)

// WeatherRecord is the persisted temperature pair for a single day.
// Date is the unique key.
type WeatherRecord struct {
	Date           string  `json:"date" toml:"date"`
	MaxTemperature float64 `json:"max_temperature" toml:"max_temperature"`
	MinTemperature float64 `json:"min_temperature" toml:"min_temperature"`
}

// DailySeries holds the parallel daily arrays returned by the archive.
// Missing readings come back as null and stay nil here.
type DailySeries struct {
	Time           []string
	MaxTemperature []*float64
	MinTemperature []*float64
}

// Len returns the number of days in the series.
func (s *DailySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// FirstDay returns the max/min of the first entry, substituting 0 for
// absent values.
func (s *DailySeries) FirstDay() (float64, float64) {
	if s == nil {
		return 0, 0
	}
	return valueAt(s.MaxTemperature, 0), valueAt(s.MinTemperature, 0)
}

// HighestMax returns the largest value of the max series, or 0 when the
// series carries no values.
func (s *DailySeries) HighestMax() float64 {
	if s == nil {
		return 0
	}
	return extreme(s.MaxTemperature, func(a, b float64) bool { return a > b })
}

// LowestMin returns the smallest value of the min series, or 0 when the
// series carries no values.
func (s *DailySeries) LowestMin() float64 {
	if s == nil {
		return 0
	}
	return extreme(s.MinTemperature, func(a, b float64) bool { return a < b })
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func extreme(values []*float64, better func(a, b float64) bool) float64 {
	var (
		best  float64
		found bool
	)
	for _, v := range values {
		if v == nil {
			continue
		}
		if !found || better(*v, best) {
			best = *v
			found = true
		}
	}
	return best
}

type ResultSource string

const (
	SourceArchive        ResultSource = "archive"
	SourceLocal          ResultSource = "local"
	SourceTenYearAverage ResultSource = "ten_year_average"
)

// TemperatureResult is the outcome of a query: either Found with a
// temperature pair or NotFound.
type TemperatureResult struct {
	Date           string       `json:"date"`
	Found          bool         `json:"found"`
	MaxTemperature float64      `json:"max_temperature"`
	MinTemperature float64      `json:"min_temperature"`
	Source         ResultSource `json:"source,omitempty"`
}

func Found(date string, max, min float64, source ResultSource) TemperatureResult {
	return TemperatureResult{
		Date:           date,
		Found:          true,
		MaxTemperature: max,
		MinTemperature: min,
		Source:         source,
	}
}

func NotFound(date string) TemperatureResult {
	return TemperatureResult{Date: date}
}

// FetchError is returned by the archive client for any failed remote call.
type FetchError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("archive fetch failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("archive fetch failed: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, value)
	}
	return date, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CalendarDay truncates t to midnight UTC of its own calendar day.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
