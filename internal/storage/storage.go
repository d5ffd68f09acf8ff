// Package storage persists background-job output as per-(job, calendar-day)
// record lists. Appends are read-append-overwrite: each write loads the
// existing list, appends one record, and writes the whole list back, so a
// day's file is always a valid JSON array.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store provides persistent storage for job records and metrics data
type Store struct {
	dataDir string

	mu    sync.RWMutex
	cache map[string][]json.RawMessage // keyed by jobType_YYYYMMDD
}

// New creates a store rooted at dataDir. The directory is created on first
// write, not here, so a read-only health check can construct a Store.
func New(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		cache:   make(map[string][]json.RawMessage),
	}
}

func recordKey(jobType string, day time.Time) string {
	return fmt.Sprintf("%s_%s", jobType, day.Format("20060102"))
}

func (s *Store) path(jobType string, day time.Time) string {
	return filepath.Join(s.dataDir, "metrics", recordKey(jobType, day)+".json")
}

// AppendRecord appends one record to the (jobType, day) list and persists
// the full list back to disk.
func (s *Store) AppendRecord(jobType string, day time.Time, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", jobType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(jobType, day)
	records, ok := s.cache[key]
	if !ok {
		records, err = s.loadLocked(jobType, day)
		if err != nil {
			return err
		}
	}
	records = append(records, raw)
	s.cache[key] = records

	path := s.path(jobType, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s records: %w", jobType, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s records: %w", jobType, err)
	}
	return nil
}

// loadLocked reads the day's file from disk. Caller holds s.mu.
func (s *Store) loadLocked(jobType string, day time.Time) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(jobType, day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s records: %w", jobType, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s records: %w", jobType, err)
	}
	return records, nil
}

// Records returns the raw record list for a (jobType, day) pair. Missing
// days yield an empty list, not an error.
func (s *Store) Records(jobType string, day time.Time) ([]json.RawMessage, error) {
	s.mu.RLock()
	if records, ok := s.cache[recordKey(jobType, day)]; ok {
		out := make([]json.RawMessage, len(records))
		copy(out, records)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadLocked(jobType, day)
	if err != nil {
		return nil, err
	}
	s.cache[recordKey(jobType, day)] = records
	out := make([]json.RawMessage, len(records))
	copy(out, records)
	return out, nil
}
