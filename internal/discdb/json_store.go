package discdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mkvauto/internal/logging"
)

// JSONStore keeps records in a JSON object keyed by disc id.
type JSONStore struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	records map[string]Record
}

// NewJSONStore loads the store at path. An empty path yields an in-memory
// store that never persists. A corrupt file is logged and the store starts
// empty.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	logger = logging.NewComponentLogger(logger, "discdb")
	s := &JSONStore{
		path:    strings.TrimSpace(path),
		logger:  logger,
		records: make(map[string]Record),
	}
	if s.path == "" {
		return s
	}
	if err := s.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load disc database", "discdb_load_failed",
			logging.Error(err),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "fix or delete the file; the database starts empty"),
			logging.String(logging.FieldImpact, "previously ripped discs will not be recognised"),
		)
	}
	return s
}

func (s *JSONStore) Has(discID string) bool {
	_, ok := s.Get(discID)
	return ok
}

func (s *JSONStore) Get(discID string) (Record, bool) {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return Record{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[discID]
	return record, ok
}

// Add inserts or replaces a record and persists the store.
func (s *JSONStore) Add(record Record) error {
	record, err := normalizeRecord(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, existed := s.records[record.DiscID]
	s.records[record.DiscID] = record
	if err := s.save(); err != nil {
		if existed {
			s.records[record.DiscID] = previous
		} else {
			delete(s.records, record.DiscID)
		}
		return fmt.Errorf("persist disc database: %w", err)
	}
	s.logger.Debug("recorded disc",
		logging.String(logging.FieldDiscID, record.DiscID),
		logging.String("output_path", record.OutputPath),
	)
	return nil
}

func (s *JSONStore) Remove(discID string) error {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok := s.records[discID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, discID)
	}
	delete(s.records, discID)
	if err := s.save(); err != nil {
		s.records[discID] = previous
		return fmt.Errorf("persist disc database: %w", err)
	}
	return nil
}

func (s *JSONStore) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sortRecords(records)
	return records
}

func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.records
	s.records = make(map[string]Record)
	if err := s.save(); err != nil {
		s.records = previous
		return fmt.Errorf("persist disc database: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

// load accepts the keyed object layout and a plain list of records.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read disc database: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	records := make(map[string]Record)
	var keyed map[string]Record
	if err := json.Unmarshal(data, &keyed); err == nil {
		for id, record := range keyed {
			record.DiscID = strings.TrimSpace(id)
			if record.DiscID != "" {
				records[record.DiscID] = record
			}
		}
	} else {
		var list []Record
		if listErr := json.Unmarshal(data, &list); listErr != nil {
			return fmt.Errorf("parse disc database: %w", err)
		}
		for _, record := range list {
			record.DiscID = strings.TrimSpace(record.DiscID)
			if record.DiscID != "" {
				records[record.DiscID] = record
			}
		}
	}
	s.records = records
	s.logger.Debug("loaded disc database",
		logging.Int("entry_count", len(records)),
		logging.String("path", s.path),
	)
	return nil
}

// save writes the store atomically via a temp file. Callers hold mu.
func (s *JSONStore) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal disc database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create disc database directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
