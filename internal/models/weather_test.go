package models

import (
	"errors"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "2020-06-15"},
		{name: "leap day", input: "2024-02-29"},
		{name: "day first", input: "15-06-2020", wantErr: true},
		{name: "single digit month", input: "2020-6-15", wantErr: true},
		{name: "not a leap year", input: "2023-02-29", wantErr: true},
		{name: "trailing text", input: "2020-06-15T00:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Fatalf("expected ErrInvalidDateFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if FormatDate(got) != tt.input {
				t.Errorf("round trip mismatch: got %s, want %s", FormatDate(got), tt.input)
			}
		})
	}
}

func TestCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)

	got := CalendarDay(in)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDailySeries_FirstDay(t *testing.T) {
	series := &DailySeries{
		Time:           []string{"2020-06-15"},
		MaxTemperature: []*float64{ptr(25.3)},
		MinTemperature: []*float64{nil},
	}

	max, min := series.FirstDay()
	if max != 25.3 {
		t.Errorf("max: got %.1f, want 25.3", max)
	}
	if min != 0 {
		t.Errorf("missing min should default to 0, got %.1f", min)
	}

	var empty *DailySeries
	if max, min := empty.FirstDay(); max != 0 || min != 0 {
		t.Errorf("nil series should yield zeros, got %.1f/%.1f", max, min)
	}
}

func TestDailySeries_Extremes(t *testing.T) {
	series := &DailySeries{
		Time:           []string{"2015-01-01", "2015-01-02", "2015-01-03"},
		MaxTemperature: []*float64{ptr(-2), nil, ptr(-1.5)},
		MinTemperature: []*float64{ptr(-8), ptr(-12.4), nil},
	}

	if got := series.HighestMax(); got != -1.5 {
		t.Errorf("HighestMax: got %.1f, want -1.5", got)
	}
	if got := series.LowestMin(); got != -12.4 {
		t.Errorf("LowestMin: got %.1f, want -12.4", got)
	}

	allNull := &DailySeries{MaxTemperature: []*float64{nil}, MinTemperature: []*float64{nil}}
	if allNull.HighestMax() != 0 || allNull.LowestMin() != 0 {
		t.Error("series without values should yield zeros")
	}
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&FetchError{Message: "request failed", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("FetchError should unwrap to its cause")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatal("expected errors.As to find FetchError")
	}

	withStatus := &FetchError{Message: "Parameter 'start_date' is out of allowed range", StatusCode: 400}
	want := "archive fetch failed (HTTP 400): Parameter 'start_date' is out of allowed range"
	if withStatus.Error() != want {
		t.Errorf("got %q, want %q", withStatus.Error(), want)
	}
}
