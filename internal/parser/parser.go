// Package parser turns the thyroid function interpretation document into
// structured patterns, Q&A pairs and reference ranges.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// ParseResult is everything extracted from one document.
type ParseResult struct {
	Patterns        []domain.ThyroidPattern
	QAPairs         []domain.QAPair
	ReferenceRanges domain.ReferenceRanges
	Sections        Sections
	Misses          []domain.ExtractionMiss
	Checksum        string
}

// KnowledgeBase packages the result as the persisted hand-off artifact.
func (r *ParseResult) KnowledgeBase(source string) *domain.KnowledgeBase {
	version := r.Checksum
	if len(version) > 12 {
		version = version[:12]
	}
	return &domain.KnowledgeBase{
		Version:         version,
		Source:          source,
		ParsedAt:        time.Now().UTC().Truncate(time.Second),
		Patterns:        r.Patterns,
		QAPairs:         r.QAPairs,
		ReferenceRanges: r.ReferenceRanges,
	}
}

// Parser extracts knowledge from interpretation documents.
type Parser struct {
	logger *logrus.Logger
}

// NewParser creates a parser that reports extraction detail to logger.
func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile reads and parses the document at path.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w",
			domain.NewValidationError("document_path", err.Error(), path))
	}
	return p.Parse(string(data))
}

// Parse extracts patterns, Q&A pairs and reference ranges from text.
func (p *Parser) Parse(text string) (*ParseResult, error) {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyDocument
	}

	sections := ExtractSections(text)
	patterns, misses := BuildPatterns(sections)

	qaPairs := []domain.QAPair{}
	if qa, ok := sections.Get(KeyQA); ok {
		qaPairs = ExtractQAPairs(qa)
	} else {
		misses = append(misses, domain.ExtractionMiss{Section: KeyQA})
	}

	ranges := ExtractReferenceRanges(text)

	for _, miss := range misses {
		p.logger.WithFields(logrus.Fields{
			"section": miss.Section,
			"label":   miss.Label,
		}).Debug("Extraction miss")
	}

	sum := sha256.Sum256([]byte(text))
	result := &ParseResult{
		Patterns:        patterns,
		QAPairs:         qaPairs,
		ReferenceRanges: ranges,
		Sections:        sections,
		Misses:          misses,
		Checksum:        hex.EncodeToString(sum[:]),
	}

	p.logger.WithFields(logrus.Fields{
		"patterns":         len(patterns),
		"qa_pairs":         len(qaPairs),
		"reference_ranges": len(ranges),
		"misses":           len(misses),
	}).Info("Document parsed")

	return result, nil
}
