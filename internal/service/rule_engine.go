package service

import (
	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Cut-offs used by the rule-only path.
const (
	overtHypoTSH     = 10.0
	treatSubclinical = 7.0
)

// panel is the classified lab input the decision table reads.
type panel struct {
	values   map[domain.TestName]float64
	statuses map[domain.TestName]domain.LabStatus
}

func (p panel) has(test domain.TestName) bool {
	_, ok := p.statuses[test]
	return ok
}

func (p panel) is(test domain.TestName, status domain.LabStatus) bool {
	return p.statuses[test] == status
}

// statusRule is one row of the thyroid status decision table.
type statusRule struct {
	Name    string
	Status  domain.ThyroidStatus
	Matches func(p panel) bool
}

// statusRules is evaluated top to bottom; the first matching row decides.
// The central-hypothyroid row only fires for a normal TSH because every low
// TSH is consumed by the rows above it.
var statusRules = []statusRule{
	{
		Name:    "no TSH",
		Status:  domain.Normal,
		Matches: func(p panel) bool { return !p.has(domain.TSH) },
	},
	{
		Name:   "low TSH with raised peripheral hormone",
		Status: domain.Hyperthyroid,
		Matches: func(p panel) bool {
			return p.is(domain.TSH, domain.StatusLow) &&
				(p.is(domain.FreeT4, domain.StatusHigh) || p.is(domain.FreeT3, domain.StatusHigh))
		},
	},
	{
		Name:    "low TSH",
		Status:  domain.SubclinicalHyper,
		Matches: func(p panel) bool { return p.is(domain.TSH, domain.StatusLow) },
	},
	{
		Name:   "high TSH with low Free T4",
		Status: domain.Hypothyroid,
		Matches: func(p panel) bool {
			return p.is(domain.TSH, domain.StatusHigh) && p.is(domain.FreeT4, domain.StatusLow)
		},
	},
	{
		Name:   "mildly high TSH with normal Free T4",
		Status: domain.SubclinicalHypo,
		Matches: func(p panel) bool {
			return p.is(domain.TSH, domain.StatusHigh) && p.is(domain.FreeT4, domain.StatusNormal) &&
				p.values[domain.TSH] <= overtHypoTSH
		},
	},
	{
		Name:   "markedly high TSH with normal Free T4",
		Status: domain.Hypothyroid,
		Matches: func(p panel) bool {
			return p.is(domain.TSH, domain.StatusHigh) && p.is(domain.FreeT4, domain.StatusNormal)
		},
	},
	{
		Name:    "high TSH",
		Status:  domain.SubclinicalHypo,
		Matches: func(p panel) bool { return p.is(domain.TSH, domain.StatusHigh) },
	},
	{
		Name:   "normal or low TSH with low Free T4",
		Status: domain.CentralHypothyroid,
		Matches: func(p panel) bool {
			return (p.is(domain.TSH, domain.StatusNormal) || p.is(domain.TSH, domain.StatusLow)) &&
				p.is(domain.FreeT4, domain.StatusLow)
		},
	},
}

var (
	hyperthyroidRecommendations = []string{
		"Refer to endocrinology promptly",
		"Antithyroid drug therapy may be required",
		"Avoid iodine-rich foods and medications",
		"Monitor heart rate and blood pressure",
		"Arrange an ophthalmology assessment if eye symptoms are present",
	}
	hypothyroidRecommendations = []string{
		"Start thyroxine replacement therapy",
		"Monitor TSH every 6-8 weeks initially",
		"Take thyroxine on an empty stomach",
		"Assess cardiovascular risk",
		"Adjust the dose promptly in case of pregnancy",
	}
	hyperthyroidTests = []string{
		"thyroid ultrasound",
		"thyroid scan (if needed)",
		"liver function tests",
		"complete blood count",
	}
	hypothyroidTests = []string{
		"lipid panel",
		"vitamin B12",
		"thyroid ultrasound",
	}
)

// RuleEngine diagnoses a lab panel with a fixed decision table when no
// literature is loaded.
type RuleEngine struct {
	logger *logrus.Logger
	ranges domain.ReferenceRanges
}

// NewRuleEngine creates a rule engine over the compiled-in reference ranges.
func NewRuleEngine(logger *logrus.Logger) *RuleEngine {
	return &RuleEngine{
		logger: logger,
		ranges: domain.DefaultReferenceRanges(),
	}
}

// ReferenceRanges returns the table the engine classifies with.
func (e *RuleEngine) ReferenceRanges() domain.ReferenceRanges {
	return e.ranges
}

// Analyze runs the rule-only path over req.
func (e *RuleEngine) Analyze(req *domain.AnalysisRequest) *domain.DiagnosisResult {
	p := panel{
		values:   req.LabData,
		statuses: ClassifyStatuses(req.LabData, e.ranges),
	}

	status, rule := determineStatus(p)
	result := &domain.DiagnosisResult{
		ThyroidStatus:         status,
		Confidence:            ruleConfidence(p, req.Symptoms),
		DifferentialDiagnosis: ruleDifferential(p, status),
		Recommendations:       ruleRecommendations(p, status, req.Symptoms),
		AdditionalTests:       ruleTests(p, status),
	}

	e.logger.WithFields(logrus.Fields{
		"thyroid_status": status,
		"rule":           rule,
		"confidence":     result.Confidence,
	}).Debug("Rule-based analysis completed")

	return result
}

// determineStatus walks the decision table and returns the status and the
// name of the row that decided it.
func determineStatus(p panel) (domain.ThyroidStatus, string) {
	for _, rule := range statusRules {
		if rule.Matches(p) {
			return rule.Status, rule.Name
		}
	}
	return domain.Normal, "default"
}

func ruleDifferential(p panel, status domain.ThyroidStatus) []domain.Differential {
	var differential []domain.Differential

	switch status {
	case domain.Hyperthyroid:
		if p.is(domain.TSHReceptorAb, domain.StatusPositive) {
			differential = append(differential, domain.Differential{Label: "Graves' disease", Score: 0.8})
		} else {
			differential = append(differential,
				domain.Differential{Label: "toxic multinodular goiter", Score: 0.4},
				domain.Differential{Label: "toxic adenoma", Score: 0.3},
				domain.Differential{Label: "subacute thyroiditis", Score: 0.2},
			)
		}
	case domain.Hypothyroid:
		if p.is(domain.AntiTPO, domain.StatusPositive) || p.is(domain.AntiTg, domain.StatusPositive) {
			differential = append(differential, domain.Differential{Label: "Hashimoto's thyroiditis", Score: 0.7})
		} else {
			differential = append(differential,
				domain.Differential{Label: "primary hypothyroidism", Score: 0.5},
				domain.Differential{Label: "iodine deficiency", Score: 0.2},
				domain.Differential{Label: "drug-induced hypothyroidism", Score: 0.2},
			)
		}
	case domain.SubclinicalHypo:
		if p.is(domain.AntiTPO, domain.StatusPositive) {
			differential = append(differential, domain.Differential{Label: "early Hashimoto's thyroiditis", Score: 0.6})
		} else {
			differential = append(differential, domain.Differential{Label: "subclinical hypothyroidism", Score: 0.7})
		}
	}

	if differential == nil {
		return []domain.Differential{}
	}
	sortDifferential(differential)
	return differential
}

func ruleRecommendations(p panel, status domain.ThyroidStatus, symptoms []string) []string {
	recs := []string{}

	switch status {
	case domain.Hyperthyroid:
		recs = append(recs, hyperthyroidRecommendations...)
	case domain.Hypothyroid:
		recs = append(recs, hypothyroidRecommendations...)
	case domain.SubclinicalHypo:
		if tsh, ok := p.values[domain.TSH]; ok && tsh > treatSubclinical {
			recs = append(recs, "TSH above 7 μIU/mL: consider treatment")
		} else {
			recs = append(recs, "Follow up in 3-6 months")
		}
		if len(symptoms) > 0 {
			recs = append(recs, "Consider a therapeutic trial for symptomatic patients")
		}
	}
	return recs
}

func ruleTests(p panel, status domain.ThyroidStatus) []string {
	tests := []string{}

	if !p.has(domain.AntiTPO) {
		tests = append(tests, testAntiTPO)
	}

	switch status {
	case domain.Hyperthyroid:
		if !p.has(domain.TSHReceptorAb) {
			tests = append(tests, "TSH receptor antibody (TRAb)")
		}
		tests = append(tests, hyperthyroidTests...)
	case domain.Hypothyroid, domain.SubclinicalHypo:
		tests = append(tests, hypothyroidTests...)
	}
	return tests
}

// ruleConfidence rewards panel completeness and supplied symptoms.
func ruleConfidence(p panel, symptoms []string) float64 {
	confidence := 0.5
	for _, test := range []domain.TestName{domain.TSH, domain.FreeT4} {
		if p.has(test) {
			confidence += 0.15
		}
	}
	if p.has(domain.AntiTPO) || p.has(domain.AntiTg) || p.has(domain.TSHReceptorAb) {
		confidence += 0.1
	}
	if len(symptoms) > 0 {
		confidence += 0.1
	}
	return clampConfidence(confidence)
}
