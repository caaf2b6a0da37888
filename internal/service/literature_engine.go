package service

import (
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Notes derived from the patient context.
const (
	noteBiotin    = "Biotin intake may interfere with immunoassay results"
	notePregnancy = "Thyroid reference values differ during pregnancy"
	noteAge       = "The TSH upper reference limit may be higher in older patients"
	noteObesity   = "Obesity may be associated with a mildly elevated TSH"

	recBiotinWashout    = "Stop biotin supplements for 3-5 days, then repeat the tests"
	recPregnancyRanges  = "Evaluate against pregnancy-specific reference values"
	recCentralAdvisory  = "Central hypothyroidism is suspected: evaluate the other pituitary hormones"
	testAntiTPO         = "Anti-TPO antibody"
	testTRAb            = "TSH receptor antibody"
	testFreeT3          = "Free T3"
	defaultLiterature   = "Interpretation and evaluation of abnormal thyroid function tests"
	otherDiagnosisScore = 0.3
	maxRelevantQA       = 2
)

const (
	elderlyAge     = 65
	obesityBMI     = 30.0
	trabCheckBelow = 0.4
)

// LiteratureEngine diagnoses a lab panel from the patterns of a knowledge base.
type LiteratureEngine struct {
	logger *logrus.Logger
}

// NewLiteratureEngine creates a literature-based engine.
func NewLiteratureEngine(logger *logrus.Logger) *LiteratureEngine {
	return &LiteratureEngine{logger: logger}
}

// ReferenceRanges returns the table the engine classifies with: the defaults
// overridden by any range the literature states.
func (e *LiteratureEngine) ReferenceRanges(kb *domain.KnowledgeBase) domain.ReferenceRanges {
	if kb == nil {
		return domain.DefaultReferenceRanges()
	}
	return domain.DefaultReferenceRanges().Merge(kb.ReferenceRanges)
}

// Analyze runs the literature path over req. kb is only read.
func (e *LiteratureEngine) Analyze(kb *domain.KnowledgeBase, req *domain.AnalysisRequest) *domain.LiteratureDiagnosis {
	if kb == nil {
		kb = &domain.KnowledgeBase{}
	}
	statuses := ClassifyStatuses(req.LabData, e.ReferenceRanges(kb))
	pattern, tier := MatchPattern(kb.Patterns, statuses)

	factors := interferingFactors(pattern, req.Patient)
	diagnosis := &domain.LiteratureDiagnosis{
		PatternMatch:          pattern.Describe(),
		PatternID:             pattern.PatternID,
		MatchTier:             string(tier),
		CommonCauses:          append([]string{}, pattern.CommonCauses...),
		DifferentialDiagnosis: literatureDifferential(pattern, statuses),
		InterferingFactors:    factors,
		Recommendations:       literatureRecommendations(pattern, statuses, factors),
		AdditionalTests:       literatureTests(pattern, req.LabData),
		SupportingLiterature:  []string{supportingLiterature(kb)},
		Confidence:            literatureConfidence(pattern, req.LabData, factors),
		SpecialNotes:          relevantQA(kb.QAPairs, statuses),
	}

	e.logger.WithFields(logrus.Fields{
		"pattern_id":   diagnosis.PatternID,
		"match_tier":   diagnosis.MatchTier,
		"confidence":   diagnosis.Confidence,
		"factors":      len(factors),
		"differential": len(diagnosis.DifferentialDiagnosis),
	}).Debug("Literature analysis completed")

	return diagnosis
}

func interferingFactors(pattern domain.ThyroidPattern, patient domain.PatientContext) []string {
	factors := append([]string{}, pattern.InterferingFactors...)

	for _, med := range patient.Medications {
		if mentionsBiotin(med) {
			factors = append(factors, noteBiotin)
			break
		}
	}
	if patient.Pregnancy {
		factors = append(factors, notePregnancy)
	}
	if patient.Age != nil && *patient.Age > elderlyAge {
		factors = append(factors, noteAge)
	}
	if patient.BMI != nil && *patient.BMI > obesityBMI {
		factors = append(factors, noteObesity)
	}
	return dedupe(factors)
}

// literatureDifferential scores common causes by rank, boosts causes the
// antibody results support, and appends the other documented possibilities.
func literatureDifferential(pattern domain.ThyroidPattern, statuses map[domain.TestName]domain.LabStatus) []domain.Differential {
	trabPositive := statuses[domain.TSHReceptorAb] == domain.StatusPositive
	tpoPositive := statuses[domain.AntiTPO] == domain.StatusPositive

	differential := []domain.Differential{}
	seen := map[string]bool{}
	for i, cause := range pattern.CommonCauses {
		score := math.Max(0, 0.8-0.1*float64(i))
		if (namesGraves(cause) && trabPositive) || (namesHashimoto(cause) && tpoPositive) {
			score = math.Min(score+0.2, 0.95)
		}
		differential = append(differential, domain.Differential{Label: cause, Score: roundScore(score)})
		seen[cause] = true
	}

	for _, other := range pattern.DifferentialDiagnosis {
		if seen[other] {
			continue
		}
		seen[other] = true
		differential = append(differential, domain.Differential{Label: other, Score: otherDiagnosisScore})
	}

	sortDifferential(differential)
	return differential
}

func literatureRecommendations(pattern domain.ThyroidPattern, statuses map[domain.TestName]domain.LabStatus, factors []string) []string {
	recs := append([]string{}, pattern.Recommendations...)

	if containsAny(factors, mentionsBiotin) {
		recs = append(recs, recBiotinWashout)
	}
	if containsAny(factors, mentionsPregnancy) {
		recs = append(recs, recPregnancyRanges)
	}
	if statuses[domain.TSH] == domain.StatusLow && statuses[domain.FreeT4] == domain.StatusLow {
		recs = append(recs, recCentralAdvisory)
	}
	return dedupe(recs)
}

func literatureTests(pattern domain.ThyroidPattern, labData map[domain.TestName]float64) []string {
	tests := append([]string{}, pattern.AdditionalTests...)

	if !hasAny(labData, domain.AntiTPO) {
		tests = append(tests, testAntiTPO)
	}
	tsh, ok := labData[domain.TSH]
	if !ok {
		tsh = 1
	}
	if !hasAny(labData, domain.TSHReceptorAb) && tsh < trabCheckBelow {
		tests = append(tests, testTRAb)
	}
	if !hasAny(labData, domain.FreeT3) {
		tests = append(tests, testFreeT3)
	}
	return dedupe(tests)
}

// literatureConfidence rewards a documented pattern and a complete panel and
// penalises every interfering factor.
func literatureConfidence(pattern domain.ThyroidPattern, labData map[domain.TestName]float64, factors []string) float64 {
	confidence := 0.5
	if pattern.TSHStatus != domain.StatusUnknown {
		confidence += 0.2
	}
	for _, test := range []domain.TestName{domain.TSH, domain.FreeT4} {
		if hasAny(labData, test) {
			confidence += 0.1
		}
	}
	if hasAny(labData, domain.AntiTPO, domain.AntiTg, domain.TSHReceptorAb) {
		confidence += 0.1
	}
	confidence -= 0.1 * float64(len(factors))
	return clampConfidence(confidence)
}

// relevantQA returns up to two Q&A entries whose question mentions a test
// with a known status.
func relevantQA(pairs []domain.QAPair, statuses map[domain.TestName]domain.LabStatus) string {
	_, hasTSH := statuses[domain.TSH]
	_, hasFT4 := statuses[domain.FreeT4]
	_, hasFT3 := statuses[domain.FreeT3]

	var relevant []string
	for _, qa := range pairs {
		question := strings.ToLower(qa.Question)
		if (strings.Contains(question, "tsh") && hasTSH) ||
			(strings.Contains(question, "t4") && hasFT4) ||
			(strings.Contains(question, "t3") && hasFT3) {
			relevant = append(relevant, "Q: "+qa.Question+"\nA: "+qa.Answer)
		}
		if len(relevant) == maxRelevantQA {
			break
		}
	}
	return strings.Join(relevant, "\n\n")
}

func supportingLiterature(kb *domain.KnowledgeBase) string {
	if kb.Source != "" {
		return kb.Source
	}
	return defaultLiterature
}

func namesGraves(cause string) bool {
	lower := strings.ToLower(cause)
	return strings.Contains(lower, "graves") || strings.Contains(cause, "葛瑞夫茲")
}

func namesHashimoto(cause string) bool {
	return strings.Contains(strings.ToLower(cause), "hashimoto") || strings.Contains(cause, "橋本")
}

func mentionsBiotin(s string) bool {
	return strings.Contains(strings.ToLower(s), "biotin") || strings.Contains(s, "生物素")
}

func mentionsPregnancy(s string) bool {
	return strings.Contains(strings.ToLower(s), "pregnan") || strings.Contains(s, "懷孕")
}

func containsAny(items []string, pred func(string) bool) bool {
	for _, item := range items {
		if pred(item) {
			return true
		}
	}
	return false
}

// dedupe removes repeated entries, keeping the first occurrence.
func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func sortDifferential(d []domain.Differential) {
	sort.SliceStable(d, func(i, j int) bool {
		return d[i].Score > d[j].Score
	})
}

func clampConfidence(c float64) float64 {
	return roundScore(math.Max(0.1, math.Min(0.95, c)))
}

// roundScore rounds to two decimals so repeated 0.1 steps compare exactly.
func roundScore(s float64) float64 {
	return math.Round(s*100) / 100
}
