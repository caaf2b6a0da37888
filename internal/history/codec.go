package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var mode, labData string

	err := s.Scan(
		&rec.ID, &rec.CorrelationID, &mode, &labData,
		&rec.ThyroidStatus, &rec.PatternID, &rec.Confidence, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Mode = domain.AnalysisMode(mode)
	rec.LabData = map[domain.TestName]float64{}
	if labData != "" {
		if err := json.Unmarshal([]byte(labData), &rec.LabData); err != nil {
			return nil, fmt.Errorf("failed to decode lab data: %w", err)
		}
	}
	return rec, nil
}

func encodeLabData(labData map[domain.TestName]float64) (string, error) {
	if labData == nil {
		labData = map[domain.TestName]float64{}
	}
	data, err := json.Marshal(labData)
	if err != nil {
		return "", fmt.Errorf("failed to encode lab data: %w", err)
	}
	return string(data), nil
}

func writeExport(writer io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}
	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(records),
		Records:    records,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
