package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, domain.NewValidationError("history.sqlite_path", "path is required", dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		correlation_id TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		lab_data TEXT NOT NULL,
		thyroid_status TEXT DEFAULT '',
		pattern_id TEXT DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON analysis_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_history_mode ON analysis_history(mode);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `SELECT id, correlation_id, mode, lab_data, thyroid_status, pattern_id, confidence, created_at
	FROM analysis_history`

// Save stores or replaces the record for its correlation ID.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	if record.CorrelationID == "" {
		return domain.NewValidationError("correlation_id", "correlation ID is required", record.CorrelationID)
	}
	labData, err := encodeLabData(record.LabData)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM analysis_history WHERE correlation_id = ?", record.CorrelationID,
	).Scan(&existingID)

	if err == nil {
		_, err = s.db.ExecContext(ctx, `
			UPDATE analysis_history SET
				mode = ?, lab_data = ?, thyroid_status = ?, pattern_id = ?, confidence = ?
			WHERE id = ?
		`, string(record.Mode), labData, record.ThyroidStatus, record.PatternID, record.Confidence, existingID)
		if err != nil {
			return fmt.Errorf("failed to update: %w", err)
		}
		record.ID = existingID
		return nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (
			correlation_id, mode, lab_data, thyroid_status, pattern_id, confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.CorrelationID, string(record.Mode), labData, record.ThyroidStatus, record.PatternID, record.Confidence, now)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id
	record.CreatedAt = now
	return nil
}

// Get retrieves the record for a correlation ID.
func (s *SQLiteStore) Get(ctx context.Context, correlationID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE correlation_id = ?", correlationID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns records newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY id DESC LIMIT ? OFFSET ?", listLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	result := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_history").Scan(&count)
	return count, err
}

// ExportJSON exports all records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return writeExport(writer, all)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
