package domain

import (
	"fmt"
	"strconv"
	"time"
)

// ThyroidPattern is one documented combination of TSH/FT4(/FT3) statuses
// together with the clinical interpretation the literature gives for it.
type ThyroidPattern struct {
	PatternID             string        `json:"pattern_id"`
	TSHStatus             LabStatus     `json:"tsh_status"`
	FT4Status             LabStatus     `json:"ft4_status"`
	FT3Status             *LabStatus    `json:"ft3_status"`
	CommonCauses          []string      `json:"common_causes"`
	InterferingFactors    []string      `json:"interfering_factors"`
	DifferentialDiagnosis []string      `json:"differential_diagnosis"`
	Recommendations       []string      `json:"recommendations"`
	AdditionalTests       []string      `json:"additional_tests"`
	CaseExamples          []CaseExample `json:"case_examples"`
	Notes                 string        `json:"notes,omitempty"`
}

// CaseExample is a worked case from the literature and its stated diagnosis.
type CaseExample struct {
	Description string `json:"description"`
	Diagnosis   string `json:"diagnosis"`
}

// NewThyroidPattern creates a pattern with every list initialised empty.
func NewThyroidPattern(id string, tsh, ft4 LabStatus) ThyroidPattern {
	return ThyroidPattern{
		PatternID:             id,
		TSHStatus:             tsh,
		FT4Status:             ft4,
		CommonCauses:          []string{},
		InterferingFactors:    []string{},
		DifferentialDiagnosis: []string{},
		Recommendations:       []string{},
		AdditionalTests:       []string{},
		CaseExamples:          []CaseExample{},
	}
}

// Normalize replaces nil lists with empty ones and fills missing statuses.
// Patterns decoded from older or hand-edited files go through it on load.
func (p *ThyroidPattern) Normalize() {
	if p.TSHStatus == "" {
		p.TSHStatus = StatusUnknown
	}
	if p.FT4Status == "" {
		p.FT4Status = StatusUnknown
	}
	p.CommonCauses = nonNil(p.CommonCauses)
	p.InterferingFactors = nonNil(p.InterferingFactors)
	p.DifferentialDiagnosis = nonNil(p.DifferentialDiagnosis)
	p.Recommendations = nonNil(p.Recommendations)
	p.AdditionalTests = nonNil(p.AdditionalTests)
	if p.CaseExamples == nil {
		p.CaseExamples = []CaseExample{}
	}
}

// Describe renders the status combination, e.g. "TSH low, Free T4 high".
func (p ThyroidPattern) Describe() string {
	desc := fmt.Sprintf("TSH %s, Free T4 %s", p.TSHStatus, p.FT4Status)
	if p.FT3Status != nil {
		desc += fmt.Sprintf(", Free T3 %s", *p.FT3Status)
	}
	return desc
}

// QAPair is a question/answer pair from the literature's Q&A section.
type QAPair struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReferenceRange is either two-sided (Min and Max) or a one-sided upper
// threshold (Max only), as used for antibody tests.
type ReferenceRange struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max"`
	Unit string   `json:"unit"`
}

// IsTwoSided reports whether the range has both bounds.
func (r ReferenceRange) IsTwoSided() bool {
	return r.Min != nil && r.Max != nil
}

// Threshold returns the upper bound of a one-sided range.
func (r ReferenceRange) Threshold() (float64, bool) {
	if r.Max == nil {
		return 0, false
	}
	return *r.Max, true
}

// Describe renders the range for reports, e.g. "0.4-4 μIU/mL" or "< 34 IU/mL".
func (r ReferenceRange) Describe() string {
	if r.IsTwoSided() {
		return fmt.Sprintf("%s-%s %s", formatFloat(*r.Min), formatFloat(*r.Max), r.Unit)
	}
	if r.Max != nil {
		return fmt.Sprintf("< %s %s", formatFloat(*r.Max), r.Unit)
	}
	return r.Unit
}

// ReferenceRanges maps a test to its reference interval.
type ReferenceRanges map[TestName]ReferenceRange

// DefaultReferenceRanges returns a fresh copy of the compiled-in table.
func DefaultReferenceRanges() ReferenceRanges {
	return ReferenceRanges{
		TSH:           {Min: Float(0.4), Max: Float(4.0), Unit: "μIU/mL"},
		FreeT4:        {Min: Float(0.8), Max: Float(1.8), Unit: "ng/dL"},
		FreeT3:        {Min: Float(2.3), Max: Float(4.2), Unit: "pg/mL"},
		AntiTPO:       {Max: Float(34), Unit: "IU/mL"},
		AntiTg:        {Max: Float(115), Unit: "IU/mL"},
		TSHReceptorAb: {Max: Float(1.75), Unit: "IU/L"},
	}
}

// Merge returns a new table where entries of override take precedence.
func (r ReferenceRanges) Merge(override ReferenceRanges) ReferenceRanges {
	merged := make(ReferenceRanges, len(r)+len(override))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// KnowledgeBase is the hand-off artifact between ingestion and inference.
// It is never mutated once loaded.
type KnowledgeBase struct {
	Version         string           `json:"version,omitempty"`
	Source          string           `json:"source,omitempty"`
	ParsedAt        time.Time        `json:"parsed_at"`
	Patterns        []ThyroidPattern `json:"patterns"`
	QAPairs         []QAPair         `json:"qa_pairs"`
	ReferenceRanges ReferenceRanges  `json:"reference_ranges"`
}

// Normalize guarantees non-nil collections after decoding.
func (kb *KnowledgeBase) Normalize() {
	if kb.Patterns == nil {
		kb.Patterns = []ThyroidPattern{}
	}
	for i := range kb.Patterns {
		kb.Patterns[i].Normalize()
	}
	if kb.QAPairs == nil {
		kb.QAPairs = []QAPair{}
	}
	if kb.ReferenceRanges == nil {
		kb.ReferenceRanges = ReferenceRanges{}
	}
}

// HasPatterns reports whether the knowledge base can drive the literature engine.
func (kb *KnowledgeBase) HasPatterns() bool {
	return kb != nil && len(kb.Patterns) > 0
}

// LabResult is one classified lab value.
type LabResult struct {
	Name           TestName  `json:"name"`
	Value          float64   `json:"value"`
	Unit           string    `json:"unit"`
	Status         LabStatus `json:"status"`
	ReferenceRange string    `json:"reference_range"`
}

// Differential is one candidate diagnosis with its relevance score in [0,1].
type Differential struct {
	Label string  `json:"diagnosis"`
	Score float64 `json:"score"`
}

// DiagnosisResult is the output of the rule-only engine.
type DiagnosisResult struct {
	ThyroidStatus         ThyroidStatus  `json:"thyroid_status"`
	Confidence            float64        `json:"confidence"`
	DifferentialDiagnosis []Differential `json:"differential_diagnosis"`
	Recommendations       []string       `json:"recommendations"`
	AdditionalTests       []string       `json:"additional_tests"`
}

// LiteratureDiagnosis is the output of the literature-based engine.
type LiteratureDiagnosis struct {
	PatternMatch          string         `json:"pattern_match"`
	PatternID             string         `json:"pattern_id,omitempty"`
	MatchTier             string         `json:"match_tier"`
	CommonCauses          []string       `json:"common_causes"`
	DifferentialDiagnosis []Differential `json:"differential_diagnosis"`
	InterferingFactors    []string       `json:"interfering_factors"`
	Recommendations       []string       `json:"recommendations"`
	AdditionalTests       []string       `json:"additional_tests"`
	SupportingLiterature  []string       `json:"supporting_literature"`
	Confidence            float64        `json:"confidence"`
	SpecialNotes          string         `json:"special_notes,omitempty"`
}

// PatientContext carries the optional clinical context of an analysis.
type PatientContext struct {
	Age         *int     `json:"age,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Pregnancy   bool     `json:"pregnancy"`
	Medications []string `json:"medications,omitempty"`
	BMI         *float64 `json:"bmi,omitempty"`
}

// AnalysisRequest is the input of one analysis call.
type AnalysisRequest struct {
	LabData       map[TestName]float64 `json:"lab_data"`
	Symptoms      []string             `json:"symptoms,omitempty"`
	Patient       PatientContext       `json:"patient"`
	Question      string               `json:"question,omitempty"`
	CorrelationID string               `json:"correlation_id,omitempty"`
}

// Validate rejects requests without any recognised lab value.
func (r *AnalysisRequest) Validate() error {
	for name := range r.LabData {
		if name.IsValid() {
			return nil
		}
	}
	return NewValidationError("lab_data", ErrNoLabData.Error(), r.LabData)
}

// AnalysisReport is what the analyzer facade returns to transports.
type AnalysisReport struct {
	Mode           AnalysisMode         `json:"mode"`
	Literature     *LiteratureDiagnosis `json:"literature,omitempty"`
	RuleBased      *DiagnosisResult     `json:"rule_based,omitempty"`
	LabResults     []LabResult          `json:"lab_results"`
	Report         string               `json:"report"`
	Narrative      string               `json:"narrative,omitempty"`
	NarrativeError string               `json:"narrative_error,omitempty"`
	ProcessingTime time.Duration        `json:"processing_time"`
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
