package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bobby-s-dev/weather-history/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// runLocalStoreTests exercises the behaviour every LocalStore must share.
func runLocalStoreTests(t *testing.T, newStore func(t *testing.T) LocalStore) {
	ctx := context.Background()

	t.Run("missing date", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByDate(ctx, "1999-12-31")
		if !errors.Is(err, models.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		want := models.WeatherRecord{Date: "2020-06-15", MaxTemperature: 25.3, MinTemperature: 14.1}
		if err := s.Put(ctx, want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.GetByDate(ctx, "2020-06-15")
		if err != nil {
			t.Fatalf("GetByDate failed: %v", err)
		}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("insert or replace", func(t *testing.T) {
		s := newStore(t)
		s.Put(ctx, models.WeatherRecord{Date: "2021-01-01", MaxTemperature: 1, MinTemperature: -1})
		replacement := models.WeatherRecord{Date: "2021-01-01", MaxTemperature: 3.5, MinTemperature: -4.25}
		if err := s.Put(ctx, replacement); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.GetByDate(ctx, "2021-01-01")
		if err != nil {
			t.Fatalf("GetByDate failed: %v", err)
		}
		if got != replacement {
			t.Errorf("got %+v, want %+v", got, replacement)
		}
	})

	t.Run("rejects malformed key", func(t *testing.T) {
		s := newStore(t)
		err := s.Put(ctx, models.WeatherRecord{Date: "15-06-2020"})
		if !errors.Is(err, models.ErrInvalidDateFormat) {
			t.Errorf("expected ErrInvalidDateFormat, got %v", err)
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for day := 1; day <= 20; day++ {
			wg.Add(1)
			go func(day int) {
				defer wg.Done()
				date := fmt.Sprintf("2022-03-%02d", day)
				if err := s.Put(ctx, models.WeatherRecord{Date: date, MaxTemperature: float64(day)}); err != nil {
					t.Errorf("Put %s failed: %v", date, err)
				}
				if _, err := s.GetByDate(ctx, date); err != nil {
					t.Errorf("GetByDate %s failed: %v", date, err)
				}
			}(day)
		}
		wg.Wait()
	})
}

func TestMemoryStore(t *testing.T) {
	runLocalStoreTests(t, func(t *testing.T) LocalStore {
		return NewMemoryStore(zaptest.NewLogger(t))
	})
}

func TestFileStore(t *testing.T) {
	runLocalStoreTests(t, func(t *testing.T) LocalStore {
		s, err := OpenFileStore(filepath.Join(t.TempDir(), "weather.toml"), zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("OpenFileStore failed: %v", err)
		}
		return s
	})
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "weather.toml")

	first, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	record := models.WeatherRecord{Date: "2020-06-15", MaxTemperature: 25.3, MinTemperature: 14.1}
	if err := first.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temporary files were not cleaned up after write: %v", leftovers)
	}

	second, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := second.GetByDate(ctx, "2020-06-15")
	if err != nil {
		t.Fatalf("GetByDate after reopen failed: %v", err)
	}
	if got != record {
		t.Errorf("got %+v, want %+v", got, record)
	}
}

func TestFileStore_SharedPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weather.toml")

	server, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	cli, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}

	cliRecord := models.WeatherRecord{Date: "2020-06-15", MaxTemperature: 25.3, MinTemperature: 14.1}
	if err := cli.Put(ctx, cliRecord); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := server.GetByDate(ctx, "2020-06-15")
	if err != nil {
		t.Fatalf("record written through another handle is not visible: %v", err)
	}
	if got != cliRecord {
		t.Errorf("got %+v, want %+v", got, cliRecord)
	}

	serverRecord := models.WeatherRecord{Date: "2021-01-01", MaxTemperature: 3, MinTemperature: -2}
	if err := server.Put(ctx, serverRecord); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reopened, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	for _, want := range []models.WeatherRecord{cliRecord, serverRecord} {
		got, err := reopened.GetByDate(ctx, want.Date)
		if err != nil {
			t.Errorf("record %s was lost: %v", want.Date, err)
			continue
		}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}

	// the CLI handle must also see the server's write
	if _, err := cli.GetByDate(ctx, "2021-01-01"); err != nil {
		t.Errorf("second handle does not see the first handle's write: %v", err)
	}
}

func TestFileStore_SharedPathConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weather.toml")

	handles := make([]*FileStore, 3)
	for i := range handles {
		s, err := OpenFileStore(path, zap.NewNop())
		if err != nil {
			t.Fatalf("OpenFileStore failed: %v", err)
		}
		handles[i] = s
	}

	var wg sync.WaitGroup
	for i, s := range handles {
		for day := 1; day <= 5; day++ {
			wg.Add(1)
			go func(s *FileStore, date string) {
				defer wg.Done()
				if err := s.Put(ctx, models.WeatherRecord{Date: date, MaxTemperature: 1}); err != nil {
					t.Errorf("Put %s failed: %v", date, err)
				}
			}(s, fmt.Sprintf("2022-0%d-%02d", i+1, day))
		}
	}
	wg.Wait()

	reopened, err := OpenFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	for i := range handles {
		for day := 1; day <= 5; day++ {
			date := fmt.Sprintf("2022-0%d-%02d", i+1, day)
			if _, err := reopened.GetByDate(ctx, date); err != nil {
				t.Errorf("record %s was lost: %v", date, err)
			}
		}
	}
}

func TestFileStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.toml")
	if err := os.WriteFile(path, []byte("[invalid toml"), 0644); err != nil {
		t.Fatalf("failed to write corrupted file: %v", err)
	}

	if _, err := OpenFileStore(path, zap.NewNop()); err == nil {
		t.Error("expected error when opening corrupted store file")
	}
}

func TestFileStore_UnsupportedSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.toml")
	if err := os.WriteFile(path, []byte("schema_version = 7\n"), 0644); err != nil {
		t.Fatalf("failed to write store file: %v", err)
	}

	if _, err := OpenFileStore(path, zap.NewNop()); err == nil {
		t.Error("expected error for unsupported schema version")
	}
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := OpenPostgres(ctx, databaseURL)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	runLocalStoreTests(t, func(t *testing.T) LocalStore {
		s := NewPostgresStore(db, zaptest.NewLogger(t))
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}
		if _, err := db.ExecContext(ctx, "TRUNCATE weather_data"); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
		return s
	})
}
