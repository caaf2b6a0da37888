// Package external wraps the optional chat-model collaborator that adds a
// plain-language narrative to an analysis. Every failure here degrades to an
// empty narrative; the diagnosis never depends on it.
package external

import (
	"context"
	"errors"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Errors returned by narrative providers.
var (
	ErrNarrativeDisabled = errors.New("narrative provider disabled")
	ErrEmptyNarrative    = errors.New("narrative provider returned no content")
)

var (
	_ domain.NarrativeProvider = (*ChatNarrator)(nil)
	_ domain.NarrativeProvider = (*CachedNarrator)(nil)
	_ domain.NarrativeProvider = DisabledNarrator{}
)

// DisabledNarrator always reports the narrative as unavailable.
type DisabledNarrator struct{}

// Narrate implements domain.NarrativeProvider.
func (DisabledNarrator) Narrate(context.Context, string, map[domain.TestName]float64) (string, error) {
	return "", ErrNarrativeDisabled
}
