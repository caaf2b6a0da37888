// Package domain contains the core entities for thyroid function interpretation:
// lab test names, categorical lab statuses, thyroid function states and the
// structured patterns extracted from the interpretation literature.
package domain

import (
	"fmt"
	"strings"
)

// TestName identifies one of the thyroid lab tests the analyzer understands.
type TestName string

const (
	TSH           TestName = "TSH"
	FreeT4        TestName = "Free_T4"
	FreeT3        TestName = "Free_T3"
	AntiTPO       TestName = "Anti_TPO"
	AntiTg        TestName = "Anti_Tg"
	TSHReceptorAb TestName = "TSH_receptor_Ab"
)

// AllTestNames returns the supported tests in reporting order.
func AllTestNames() []TestName {
	return []TestName{TSH, FreeT4, FreeT3, AntiTPO, AntiTg, TSHReceptorAb}
}

// IsValid reports whether the test name is one of the supported tests.
func (t TestName) IsValid() bool {
	switch t {
	case TSH, FreeT4, FreeT3, AntiTPO, AntiTg, TSHReceptorAb:
		return true
	default:
		return false
	}
}

// IsAntibody reports whether the test is reported against a one-sided threshold.
func (t TestName) IsAntibody() bool {
	switch t {
	case AntiTPO, AntiTg, TSHReceptorAb:
		return true
	default:
		return false
	}
}

// String returns the string representation of the test name.
func (t TestName) String() string {
	return string(t)
}

// DisplayName returns the label used in reports and in the literature.
func (t TestName) DisplayName() string {
	switch t {
	case FreeT4:
		return "Free T4"
	case FreeT3:
		return "Free T3"
	case AntiTPO:
		return "Anti-TPO"
	case AntiTg:
		return "Anti-Tg"
	case TSHReceptorAb:
		return "TSH receptor antibody"
	default:
		return string(t)
	}
}

// ParseTestName accepts the canonical names plus the common spellings used by
// lab reports and HTTP clients ("FT4", "Free T4", "TRAb", ...).
func ParseTestName(s string) (TestName, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "tsh":
		return TSH, nil
	case "freet4", "ft4":
		return FreeT4, nil
	case "freet3", "ft3":
		return FreeT3, nil
	case "antitpo", "tpoab":
		return AntiTPO, nil
	case "antitg", "tgab":
		return AntiTg, nil
	case "tshreceptorab", "trab", "tshreceptorantibody":
		return TSHReceptorAb, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTestName, s)
	}
}

// LabStatus is the categorical interpretation of a lab value, or of a
// pattern's expected value.
type LabStatus string

const (
	StatusLow          LabStatus = "low"
	StatusNormal       LabStatus = "normal"
	StatusHigh         LabStatus = "high"
	StatusPositive     LabStatus = "positive"
	StatusNegative     LabStatus = "negative"
	StatusUnsuppressed LabStatus = "unsuppressed"
	StatusHighOrNormal LabStatus = "high-or-normal"
	StatusUnknown      LabStatus = "unknown"
)

// IsValid reports whether the status is a known value.
func (s LabStatus) IsValid() bool {
	switch s {
	case StatusLow, StatusNormal, StatusHigh, StatusPositive, StatusNegative,
		StatusUnsuppressed, StatusHighOrNormal, StatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s LabStatus) String() string {
	return string(s)
}

// ThyroidStatus is the overall thyroid function state reported by the
// rule-only engine.
type ThyroidStatus string

const (
	Normal             ThyroidStatus = "NORMAL"
	Hyperthyroid       ThyroidStatus = "HYPERTHYROID"
	Hypothyroid        ThyroidStatus = "HYPOTHYROID"
	SubclinicalHyper   ThyroidStatus = "SUBCLINICAL_HYPER"
	SubclinicalHypo    ThyroidStatus = "SUBCLINICAL_HYPO"
	CentralHypothyroid ThyroidStatus = "CENTRAL_HYPOTHYROID"
)

// IsValid reports whether the status is one of the defined states.
func (s ThyroidStatus) IsValid() bool {
	switch s {
	case Normal, Hyperthyroid, Hypothyroid, SubclinicalHyper, SubclinicalHypo, CentralHypothyroid:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s ThyroidStatus) String() string {
	return string(s)
}

// DisplayName returns a human-readable description for reports.
func (s ThyroidStatus) DisplayName() string {
	switch s {
	case Normal:
		return "Normal thyroid function"
	case Hyperthyroid:
		return "Hyperthyroidism"
	case Hypothyroid:
		return "Hypothyroidism"
	case SubclinicalHyper:
		return "Subclinical hyperthyroidism"
	case SubclinicalHypo:
		return "Subclinical hypothyroidism"
	case CentralHypothyroid:
		return "Central hypothyroidism"
	default:
		return "Unknown thyroid status"
	}
}

// LogFields returns structured logging fields for audit trails.
func (s ThyroidStatus) LogFields() map[string]any {
	return map[string]any{
		"thyroid_status": string(s),
		"display_name":   s.DisplayName(),
		"is_valid":       s.IsValid(),
	}
}

// AnalysisMode records which engine produced a diagnosis.
type AnalysisMode string

const (
	ModeLiterature AnalysisMode = "literature"
	ModeRuleBased  AnalysisMode = "rule_based"
)
