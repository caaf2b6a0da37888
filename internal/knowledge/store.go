// Package knowledge persists the parsed knowledge base and serves the
// current snapshot to the analyzer.
package knowledge

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Encode writes kb as indented JSON.
func Encode(w io.Writer, kb *domain.KnowledgeBase) error {
	if kb == nil {
		return fmt.Errorf("knowledge base is nil")
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(kb)
}

// Decode reads a knowledge base and guarantees its collections are non-nil.
func Decode(r io.Reader) (*domain.KnowledgeBase, error) {
	var kb domain.KnowledgeBase
	if err := json.NewDecoder(r).Decode(&kb); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge base: %w", err)
	}
	kb.Normalize()
	return &kb, nil
}

// Save writes kb to path. The previous file stays intact until the new
// content is fully written.
func Save(kb *domain.KnowledgeBase, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, kb); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace knowledge base: %w", err)
	}
	return nil
}

// Load reads the knowledge base at path.
func Load(path string) (*domain.KnowledgeBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
