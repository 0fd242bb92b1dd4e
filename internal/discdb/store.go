package discdb

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mkvauto/internal/config"
)

var (
	// ErrEmptyID rejects records without a disc identity.
	ErrEmptyID = errors.New("disc id cannot be empty")
	// ErrNotFound reports a missing disc id.
	ErrNotFound = errors.New("disc id not found")
)

// Record describes one ripped disc.
type Record struct {
	DiscID       string    `json:"disc_id"`
	Name         string    `json:"name"`
	OutputPath   string    `json:"output_path"`
	ContentClass string    `json:"content_class,omitempty"`
	RippedAt     time.Time `json:"ripped_at,omitzero"`
}

// Store persists disc identities.
type Store interface {
	Has(discID string) bool
	Get(discID string) (Record, bool)
	Add(record Record) error
	Remove(discID string) error
	List() []Record
	Clear() error
	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg config.DiscDB, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "json":
		return NewJSONStore(cfg.Path, logger), nil
	case "sqlite":
		return OpenSQLite(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("disc db backend %q not supported", cfg.Backend)
	}
}

func normalizeRecord(record Record) (Record, error) {
	record.DiscID = strings.TrimSpace(record.DiscID)
	if record.DiscID == "" {
		return Record{}, ErrEmptyID
	}
	if record.RippedAt.IsZero() {
		record.RippedAt = time.Now()
	}
	record.RippedAt = record.RippedAt.UTC()
	return record, nil
}

// sortRecords orders newest first, then by id.
func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].RippedAt.Equal(records[j].RippedAt) {
			return records[i].RippedAt.After(records[j].RippedAt)
		}
		return records[i].DiscID < records[j].DiscID
	})
}
