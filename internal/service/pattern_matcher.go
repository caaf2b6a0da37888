package service

import (
	"github.com/thyroid-lit-analyzer/internal/domain"
)

// MatchTier records how a pattern was selected.
type MatchTier string

const (
	MatchExact   MatchTier = "exact"
	MatchTSHOnly MatchTier = "tsh_only"
	MatchDefault MatchTier = "default"
)

// Generic content of the synthesised pattern used when the literature has no
// pattern for the observed TSH status.
const (
	defaultCause          = "needs further evaluation"
	defaultRecommendation = "complete thyroid function work-up recommended"
)

var defaultTests = []string{"complete thyroid function panel", "thyroid ultrasound"}

// MatchPattern selects the pattern for the observed statuses. The first
// pattern in document order wins at every tier:
//  1. TSH and Free T4 match, and Free T3 too when both sides specify it;
//  2. TSH alone matches;
//  3. a synthesised default pattern.
func MatchPattern(patterns []domain.ThyroidPattern, statuses map[domain.TestName]domain.LabStatus) (domain.ThyroidPattern, MatchTier) {
	tsh := statusOf(statuses, domain.TSH)
	ft4 := statusOf(statuses, domain.FreeT4)
	ft3 := statusOf(statuses, domain.FreeT3)

	for _, p := range patterns {
		if p.TSHStatus != tsh || p.FT4Status != ft4 {
			continue
		}
		if ft3 != domain.StatusUnknown && p.FT3Status != nil && *p.FT3Status != ft3 {
			continue
		}
		return p, MatchExact
	}

	for _, p := range patterns {
		if p.TSHStatus == tsh {
			return p, MatchTSHOnly
		}
	}

	return DefaultPattern(tsh, ft4), MatchDefault
}

// DefaultPattern builds the generic pattern carrying the observed statuses.
func DefaultPattern(tsh, ft4 domain.LabStatus) domain.ThyroidPattern {
	p := domain.NewThyroidPattern("", tsh, ft4)
	p.CommonCauses = []string{defaultCause}
	p.Recommendations = []string{defaultRecommendation}
	p.AdditionalTests = append([]string{}, defaultTests...)
	return p
}
