package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bobby-s-dev/weather-history/internal/models"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const fileSchemaVersion = 1

// FileStore is the on-device store: a single TOML file holding every
// record. The file is shared with other processes (the server and the
// CLI), so every Put re-reads it under an exclusive lock before merging,
// and GetByDate reloads it whenever it changed on disk.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	lockPath string
	records  map[string]models.WeatherRecord
	loaded   fileStamp
	logger   *zap.Logger
}

// fileStamp identifies the version of the file the records came from.
// Writers replace the file by rename, so identity changes on every write
// even when the modification time does not.
type fileStamp struct {
	info os.FileInfo
}

func (a fileStamp) same(b fileStamp) bool {
	if a.info == nil || b.info == nil {
		return a.info == nil && b.info == nil
	}
	return os.SameFile(a.info, b.info) &&
		a.info.Size() == b.info.Size() &&
		a.info.ModTime().Equal(b.info.ModTime())
}

func (a fileStamp) exists() bool { return a.info != nil }

type fileContents struct {
	SchemaVersion int                   `toml:"schema_version"`
	Records       map[string]fileRecord `toml:"records"`
}

type fileRecord struct {
	MaxTemperature float64 `toml:"max_temperature"`
	MinTemperature float64 `toml:"min_temperature"`
}

// OpenFileStore loads filePath if it exists. A missing file is an empty
// store; the file is created on the first Put.
func OpenFileStore(filePath string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		filePath: filepath.Clean(filePath),
		records:  make(map[string]models.WeatherRecord),
		logger:   logger,
	}
	s.lockPath = s.filePath + ".lock"

	unlock, err := lockFile(s.lockPath, false)
	if err != nil {
		return nil, err
	}
	err = s.load()
	unlock()
	if err != nil {
		return nil, err
	}

	logger.Info("File store opened",
		zap.String("path", s.filePath),
		zap.Int("records", len(s.records)))

	return s, nil
}

func (s *FileStore) stat() (fileStamp, error) {
	info, err := os.Stat(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, fmt.Errorf("failed to stat store file: %w", err)
	}
	return fileStamp{info: info}, nil
}

// load replaces the in-memory records with the file contents. Callers hold
// s.mu (or own s exclusively) and the file lock.
func (s *FileStore) load() error {
	stamp, err := s.stat()
	if err != nil {
		return err
	}

	records := make(map[string]models.WeatherRecord)
	if stamp.exists() {
		data, err := os.ReadFile(s.filePath)
		if err != nil {
			return fmt.Errorf("failed to read store file: %w", err)
		}

		var contents fileContents
		if err := toml.Unmarshal(data, &contents); err != nil {
			return fmt.Errorf("failed to parse store file: %w", err)
		}

		if contents.SchemaVersion != fileSchemaVersion {
			return fmt.Errorf("unsupported store schema version: %d", contents.SchemaVersion)
		}

		for date, r := range contents.Records {
			records[date] = models.WeatherRecord{
				Date:           date,
				MaxTemperature: r.MaxTemperature,
				MinTemperature: r.MinTemperature,
			}
		}
	}

	s.records = records
	s.loaded = stamp
	return nil
}

// refresh reloads the file if another writer changed it since the last load.
func (s *FileStore) refresh() error {
	stamp, err := s.stat()
	if err != nil {
		return err
	}
	if stamp.same(s.loaded) {
		return nil
	}

	unlock, err := lockFile(s.lockPath, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.load(); err != nil {
		return err
	}

	s.logger.Debug("Store file changed on disk, reloaded",
		zap.String("path", s.filePath),
		zap.Int("records", len(s.records)))
	return nil
}

func (s *FileStore) GetByDate(_ context.Context, date string) (models.WeatherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(); err != nil {
		return models.WeatherRecord{}, err
	}

	record, exists := s.records[date]
	if !exists {
		return models.WeatherRecord{}, models.ErrRecordNotFound
	}
	return record, nil
}

func (s *FileStore) Put(_ context.Context, record models.WeatherRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.lockPath, true)
	if err != nil {
		return err
	}
	defer unlock()

	// merge into what is on disk now, not what was loaded earlier
	if err := s.load(); err != nil {
		return err
	}

	previous, existed := s.records[record.Date]
	s.records[record.Date] = record

	if err := s.flush(); err != nil {
		if existed {
			s.records[record.Date] = previous
		} else {
			delete(s.records, record.Date)
		}
		return err
	}

	s.logger.Debug("Weather record written",
		zap.String("path", s.filePath),
		zap.String("date", record.Date))

	return nil
}

// flush must be called with s.mu and the exclusive file lock held.
func (s *FileStore) flush() error {
	contents := fileContents{
		SchemaVersion: fileSchemaVersion,
		Records:       make(map[string]fileRecord, len(s.records)),
	}
	for date, r := range s.records {
		contents.Records[date] = fileRecord{
			MaxTemperature: r.MaxTemperature,
			MinTemperature: r.MinTemperature,
		}
	}

	data, err := toml.Marshal(contents)
	if err != nil {
		return fmt.Errorf("failed to marshal store file: %w", err)
	}

	dir, base := filepath.Split(s.filePath)
	if dir == "" {
		dir = "."
	}

	tempFile, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to write store file: %w", err)
	}

	if err := os.Rename(tempName, s.filePath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("failed to finalize store file: %w", err)
	}

	stamp, err := s.stat()
	if err != nil {
		return err
	}
	s.loaded = stamp
	return nil
}
