package knowledge

import (
	"sync/atomic"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Snapshot holds the knowledge base currently served to analyses. Readers
// get an immutable pointer; a reload swaps in a new one.
type Snapshot struct {
	kb atomic.Pointer[domain.KnowledgeBase]
}

// NewSnapshot creates a snapshot holder, optionally preloaded.
func NewSnapshot(kb *domain.KnowledgeBase) *Snapshot {
	s := &Snapshot{}
	if kb != nil {
		s.kb.Store(kb)
	}
	return s
}

// Current returns the loaded knowledge base, or nil.
func (s *Snapshot) Current() *domain.KnowledgeBase {
	return s.kb.Load()
}

// Swap installs kb and returns the previous snapshot.
func (s *Snapshot) Swap(kb *domain.KnowledgeBase) *domain.KnowledgeBase {
	return s.kb.Swap(kb)
}

// Reload loads path and swaps it in. On failure the current snapshot is kept.
func (s *Snapshot) Reload(path string) (*domain.KnowledgeBase, error) {
	kb, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.Swap(kb)
	return kb, nil
}
