package knowledge

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// VersionInfo describes one archived knowledge base.
type VersionInfo struct {
	ID           int64     `json:"id"`
	Version      string    `json:"version"`
	Source       string    `json:"source"`
	ParsedAt     time.Time `json:"parsed_at"`
	PatternCount int       `json:"pattern_count"`
	QACount      int       `json:"qa_count"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// Archive keeps every ingested knowledge base in SQLite so an operator can
// roll back to an earlier snapshot.
type Archive struct {
	db     *sql.DB
	dbPath string
}

// NewArchive opens or creates the archive database at dbPath.
func NewArchive(dbPath string) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
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

	if err := createArchiveSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Archive{db: db, dbPath: dbPath}, nil
}

func createArchiveSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version TEXT NOT NULL UNIQUE,
		source TEXT DEFAULT '',
		parsed_at DATETIME,
		pattern_count INTEGER NOT NULL DEFAULT 0,
		qa_count INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		archived_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_knowledge_archived_at ON knowledge_versions(archived_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveVersion archives kb. Archiving a version that already exists replaces
// it and makes it the latest.
func (a *Archive) SaveVersion(ctx context.Context, kb *domain.KnowledgeBase) (*VersionInfo, error) {
	if kb == nil || kb.Version == "" {
		return nil, domain.NewValidationError("version", "knowledge base version is required", nil)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, kb); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := a.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO knowledge_versions (
			version, source, parsed_at, pattern_count, qa_count, payload, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		kb.Version,
		kb.Source,
		kb.ParsedAt,
		len(kb.Patterns),
		len(kb.QAPairs),
		buf.String(),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive knowledge base: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert ID: %w", err)
	}

	return &VersionInfo{
		ID:           id,
		Version:      kb.Version,
		Source:       kb.Source,
		ParsedAt:     kb.ParsedAt,
		PatternCount: len(kb.Patterns),
		QACount:      len(kb.QAPairs),
		ArchivedAt:   now,
	}, nil
}

// Latest returns the most recently archived knowledge base.
func (a *Archive) Latest(ctx context.Context) (*domain.KnowledgeBase, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT payload FROM knowledge_versions ORDER BY id DESC LIMIT 1")
	return scanPayload(row)
}

// Get returns the archived knowledge base with the given version.
func (a *Archive) Get(ctx context.Context, version string) (*domain.KnowledgeBase, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT payload FROM knowledge_versions WHERE version = ?", version)
	return scanPayload(row)
}

func scanPayload(row *sql.Row) (*domain.KnowledgeBase, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return Decode(bytes.NewBufferString(payload))
}

// ListVersions returns archived versions, newest first.
func (a *Archive) ListVersions(ctx context.Context, limit int) ([]VersionInfo, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, version, source, parsed_at, pattern_count, qa_count, archived_at
		FROM knowledge_versions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var versions []VersionInfo
	for rows.Next() {
		var v VersionInfo
		if err := rows.Scan(&v.ID, &v.Version, &v.Source, &v.ParsedAt,
			&v.PatternCount, &v.QACount, &v.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}
