package discdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mkvauto/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite disc database requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create disc database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, logger: logging.NewComponentLogger(logger, "discdb")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'mkvauto discdb clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Has(discID string) bool {
	_, ok := s.Get(discID)
	return ok
}

// Get returns the record for discID. Query failures are logged and treated
// as a miss.
func (s *SQLiteStore) Get(discID string) (Record, bool) {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return Record{}, false
	}
	row := s.db.QueryRowContext(context.Background(),
		"SELECT disc_id, name, output_path, content_class, ripped_at FROM discs WHERE disc_id = ?", discID)
	record, err := scanRecord(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.WarnWithContext(s.logger, "disc database lookup failed", "discdb_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldDiscID, discID),
				logging.String(logging.FieldImpact, "disc treated as not yet ripped"),
			)
		}
		return Record{}, false
	}
	return record, true
}

func (s *SQLiteStore) Add(record Record) error {
	record, err := normalizeRecord(record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO discs (disc_id, name, output_path, content_class, ripped_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(disc_id) DO UPDATE SET
            name = excluded.name,
            output_path = excluded.output_path,
            content_class = excluded.content_class,
            ripped_at = excluded.ripped_at`,
		record.DiscID, record.Name, record.OutputPath, record.ContentClass,
		record.RippedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert disc record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(discID string) error {
	discID = strings.TrimSpace(discID)
	if discID == "" {
		return ErrEmptyID
	}
	res, err := s.db.ExecContext(context.Background(), "DELETE FROM discs WHERE disc_id = ?", discID)
	if err != nil {
		return fmt.Errorf("delete disc record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, discID)
	}
	return nil
}

func (s *SQLiteStore) List() []Record {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT disc_id, name, output_path, content_class, ripped_at FROM discs")
	if err != nil {
		logging.WarnWithContext(s.logger, "disc database list failed", "discdb_list_failed", logging.Error(err))
		return nil
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			logging.WarnWithContext(s.logger, "skipping unreadable disc record", "discdb_row_invalid", logging.Error(err))
			continue
		}
		records = append(records, record)
	}
	sortRecords(records)
	return records
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM discs"); err != nil {
		return fmt.Errorf("clear disc records: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record   Record
		rippedAt string
	)
	if err := row.Scan(&record.DiscID, &record.Name, &record.OutputPath, &record.ContentClass, &rippedAt); err != nil {
		return Record{}, err
	}
	if rippedAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, rippedAt)
		if err != nil {
			return Record{}, fmt.Errorf("parse ripped_at %q: %w", rippedAt, err)
		}
		record.RippedAt = parsed
	}
	return record, nil
}
