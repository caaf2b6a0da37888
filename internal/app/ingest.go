package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/knowledge"
	"github.com/thyroid-lit-analyzer/internal/parser"
)

// IngestResult describes one completed ingestion.
type IngestResult struct {
	KnowledgeBase *domain.KnowledgeBase   `json:"-"`
	Version       string                  `json:"version"`
	Output        string                  `json:"output"`
	Patterns      int                     `json:"patterns"`
	QAPairs       int                     `json:"qa_pairs"`
	Ranges        int                     `json:"reference_ranges"`
	Misses        []domain.ExtractionMiss `json:"misses"`
	Archived      *knowledge.VersionInfo  `json:"archived,omitempty"`
}

// Ingest parses the document at docPath, writes the knowledge base to outPath
// and, when archive is non-nil, records it as a new version.
func Ingest(ctx context.Context, logger *logrus.Logger, docPath, outPath string, archive *knowledge.Archive) (*IngestResult, error) {
	result, err := parser.NewParser(logger).ParseFile(docPath)
	if err != nil {
		return nil, err
	}

	kb := result.KnowledgeBase(filepath.Base(docPath))
	if err := knowledge.Save(kb, outPath); err != nil {
		return nil, fmt.Errorf("failed to write knowledge base: %w", err)
	}

	out := &IngestResult{
		KnowledgeBase: kb,
		Version:       kb.Version,
		Output:        outPath,
		Patterns:      len(kb.Patterns),
		QAPairs:       len(kb.QAPairs),
		Ranges:        len(kb.ReferenceRanges),
		Misses:        result.Misses,
	}
	if out.Misses == nil {
		out.Misses = []domain.ExtractionMiss{}
	}

	if archive != nil {
		info, err := archive.SaveVersion(ctx, kb)
		if err != nil {
			return nil, fmt.Errorf("failed to archive knowledge base: %w", err)
		}
		out.Archived = info
	}

	logger.WithFields(logrus.Fields{
		"document": docPath,
		"output":   outPath,
		"version":  kb.Version,
		"patterns": out.Patterns,
		"misses":   len(out.Misses),
	}).Info("Knowledge base ingested")

	return out, nil
}
