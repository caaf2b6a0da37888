package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id BIGSERIAL PRIMARY KEY,
		correlation_id TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		lab_data JSONB NOT NULL,
		thyroid_status TEXT DEFAULT '',
		pattern_id TEXT DEFAULT '',
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

// NewPostgresStore creates a PostgreSQL history store on db and ensures the
// table exists.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a PostgreSQL history store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, domain.NewValidationError("history.postgres_url", "URL is required", databaseURL)
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores or replaces the record for its correlation ID.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	if record.CorrelationID == "" {
		return domain.NewValidationError("correlation_id", "correlation ID is required", record.CorrelationID)
	}
	labData, err := encodeLabData(record.LabData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analysis_history (
			correlation_id, mode, lab_data, thyroid_status, pattern_id, confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (correlation_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			lab_data = EXCLUDED.lab_data,
			thyroid_status = EXCLUDED.thyroid_status,
			pattern_id = EXCLUDED.pattern_id,
			confidence = EXCLUDED.confidence
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		record.CorrelationID,
		string(record.Mode),
		labData,
		record.ThyroidStatus,
		record.PatternID,
		record.Confidence,
		time.Now().UTC(),
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}
	return nil
}

// Get retrieves the record for a correlation ID.
func (s *PostgresStore) Get(ctx context.Context, correlationID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, correlation_id, mode, lab_data::text, thyroid_status, pattern_id, confidence, created_at
		FROM analysis_history
		WHERE correlation_id = $1
	`, correlationID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

// List returns records newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, correlation_id, mode, lab_data::text, thyroid_status, pattern_id, confidence, created_at
		FROM analysis_history
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, listLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// ExportJSON exports all records to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return writeExport(writer, all)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
