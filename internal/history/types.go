// Package history stores a summary of every completed analysis so that
// operators can audit what the analyzer reported and export it for review.
package history

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Record summarises one analysis.
type Record struct {
	ID            int64                       `json:"id,omitempty"`
	CorrelationID string                      `json:"correlation_id"`
	Mode          domain.AnalysisMode         `json:"mode"`
	LabData       map[domain.TestName]float64 `json:"lab_data"`
	ThyroidStatus string                      `json:"thyroid_status,omitempty"` // rule-based runs only
	PatternID     string                      `json:"pattern_id,omitempty"`     // literature runs only
	Confidence    float64                     `json:"confidence"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// NewRecord builds the history entry for a finished analysis.
func NewRecord(correlationID string, req *domain.AnalysisRequest, report *domain.AnalysisReport) *Record {
	rec := &Record{
		CorrelationID: correlationID,
		Mode:          report.Mode,
		LabData:       map[domain.TestName]float64{},
	}
	if req != nil {
		for test, value := range req.LabData {
			rec.LabData[test] = value
		}
	}
	switch {
	case report.Literature != nil:
		rec.PatternID = report.Literature.PatternID
		rec.Confidence = report.Literature.Confidence
	case report.RuleBased != nil:
		rec.ThyroidStatus = string(report.RuleBased.ThyroidStatus)
		rec.Confidence = report.RuleBased.Confidence
	}
	return rec
}

// Store defines the interface for analysis history storage.
type Store interface {
	// Save stores a record. A record with an existing correlation ID
	// replaces the stored one.
	Save(ctx context.Context, record *Record) error

	// Get returns the record for a correlation ID, or domain.ErrNotFound.
	Get(ctx context.Context, correlationID string) (*Record, error)

	// List returns records newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every record to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// Export is the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}

// Open creates the store selected by cfg. The "none" driver returns a nil
// store and no error.
func Open(cfg domain.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStoreFromURL(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", cfg.Driver)
	}
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// defaultListLimit applies when List is called with a non-positive limit.
const defaultListLimit = 50
