package domain

import (
	"errors"
	"testing"
)

func TestTestNameConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    TestName
		expected string
	}{
		{"TSH", TSH, "TSH"},
		{"Free T4", FreeT4, "Free_T4"},
		{"Free T3", FreeT3, "Free_T3"},
		{"Anti-TPO", AntiTPO, "Anti_TPO"},
		{"Anti-Tg", AntiTg, "Anti_Tg"},
		{"TRAb", TSHReceptorAb, "TSH_receptor_Ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
			if !tt.value.IsValid() {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}

	if TestName("TSH_total").IsValid() {
		t.Error("Unknown test name should not be valid")
	}
}

func TestTestNameIsAntibody(t *testing.T) {
	antibodies := map[TestName]bool{
		TSH:           false,
		FreeT4:        false,
		FreeT3:        false,
		AntiTPO:       true,
		AntiTg:        true,
		TSHReceptorAb: true,
	}
	for name, want := range antibodies {
		if name.IsAntibody() != want {
			t.Errorf("IsAntibody(%s) = %v, want %v", name, name.IsAntibody(), want)
		}
	}
}

func TestParseTestName(t *testing.T) {
	tests := []struct {
		input    string
		expected TestName
	}{
		{"TSH", TSH},
		{"tsh", TSH},
		{"Free T4", FreeT4},
		{"FT4", FreeT4},
		{"Free_T3", FreeT3},
		{"anti-tpo", AntiTPO},
		{"Anti_Tg", AntiTg},
		{"TRAb", TSHReceptorAb},
		{"TSH_receptor_Ab", TSHReceptorAb},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTestName(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}

	_, err := ParseTestName("cortisol")
	if !errors.Is(err, ErrInvalidTestName) {
		t.Errorf("Expected ErrInvalidTestName, got %v", err)
	}
}

func TestThyroidStatusConstants(t *testing.T) {
	tests := []struct {
		value       ThyroidStatus
		expected    string
		displayName string
	}{
		{Normal, "NORMAL", "Normal thyroid function"},
		{Hyperthyroid, "HYPERTHYROID", "Hyperthyroidism"},
		{Hypothyroid, "HYPOTHYROID", "Hypothyroidism"},
		{SubclinicalHyper, "SUBCLINICAL_HYPER", "Subclinical hyperthyroidism"},
		{SubclinicalHypo, "SUBCLINICAL_HYPO", "Subclinical hypothyroidism"},
		{CentralHypothyroid, "CENTRAL_HYPOTHYROID", "Central hypothyroidism"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.value.String() != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, tt.value.String())
			}
			if tt.value.DisplayName() != tt.displayName {
				t.Errorf("Expected display name %s, got %s", tt.displayName, tt.value.DisplayName())
			}
			fields := tt.value.LogFields()
			if fields["is_valid"] != true {
				t.Errorf("Expected %s to be valid", tt.value)
			}
		})
	}
}

func TestLabStatusIsValid(t *testing.T) {
	for _, s := range []LabStatus{StatusLow, StatusNormal, StatusHigh, StatusPositive,
		StatusNegative, StatusUnsuppressed, StatusHighOrNormal, StatusUnknown} {
		if !s.IsValid() {
			t.Errorf("Expected %s to be valid", s)
		}
	}
	if LabStatus("borderline").IsValid() {
		t.Error("borderline should not be a valid status")
	}
}

func TestNewThyroidPatternListsAreEmpty(t *testing.T) {
	p := NewThyroidPattern("2.2.1", StatusLow, StatusHigh)

	if p.CommonCauses == nil || p.InterferingFactors == nil || p.DifferentialDiagnosis == nil ||
		p.Recommendations == nil || p.AdditionalTests == nil || p.CaseExamples == nil {
		t.Fatal("Expected every list to be initialised")
	}
	if p.FT3Status != nil {
		t.Error("Expected FT3 status to be unset")
	}
	if got := p.Describe(); got != "TSH low, Free T4 high" {
		t.Errorf("Unexpected description %q", got)
	}

	ft3 := StatusHigh
	p.FT3Status = &ft3
	if got := p.Describe(); got != "TSH low, Free T4 high, Free T3 high" {
		t.Errorf("Unexpected description %q", got)
	}
}

func TestThyroidPatternNormalize(t *testing.T) {
	p := ThyroidPattern{PatternID: "2.2.9"}
	p.Normalize()

	if p.TSHStatus != StatusUnknown || p.FT4Status != StatusUnknown {
		t.Errorf("Expected unknown statuses, got %s/%s", p.TSHStatus, p.FT4Status)
	}
	if p.CommonCauses == nil || p.CaseExamples == nil {
		t.Error("Expected lists to be initialised")
	}
}

func TestReferenceRange(t *testing.T) {
	ranges := DefaultReferenceRanges()

	tsh := ranges[TSH]
	if !tsh.IsTwoSided() {
		t.Error("TSH range should be two-sided")
	}
	if got := tsh.Describe(); got != "0.4-4 μIU/mL" {
		t.Errorf("Unexpected TSH description %q", got)
	}

	tpo := ranges[AntiTPO]
	if tpo.IsTwoSided() {
		t.Error("Anti-TPO range should be one-sided")
	}
	threshold, ok := tpo.Threshold()
	if !ok || threshold != 34 {
		t.Errorf("Expected threshold 34, got %v (%v)", threshold, ok)
	}
	if got := tpo.Describe(); got != "< 34 IU/mL" {
		t.Errorf("Unexpected Anti-TPO description %q", got)
	}
}

func TestDefaultReferenceRangesIsFreshCopy(t *testing.T) {
	a := DefaultReferenceRanges()
	delete(a, TSH)

	b := DefaultReferenceRanges()
	if _, ok := b[TSH]; !ok {
		t.Error("Mutating one copy must not affect another")
	}
}

func TestReferenceRangesMerge(t *testing.T) {
	literature := ReferenceRanges{
		TSH: {Min: Float(0.5), Max: Float(5.0), Unit: "μIU/mL"},
	}
	merged := DefaultReferenceRanges().Merge(literature)

	if *merged[TSH].Max != 5.0 {
		t.Errorf("Expected literature TSH max to win, got %v", *merged[TSH].Max)
	}
	if *merged[FreeT4].Max != 1.8 {
		t.Errorf("Expected default Free T4 max, got %v", *merged[FreeT4].Max)
	}
	if len(merged) != len(AllTestNames()) {
		t.Errorf("Expected %d entries, got %d", len(AllTestNames()), len(merged))
	}
}

func TestAnalysisRequestValidate(t *testing.T) {
	empty := &AnalysisRequest{}
	var vErr *ValidationError
	if err := empty.Validate(); !errors.As(err, &vErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	unknownOnly := &AnalysisRequest{LabData: map[TestName]float64{"cortisol": 12}}
	if err := unknownOnly.Validate(); err == nil {
		t.Error("Expected unknown-only lab data to be rejected")
	}

	ok := &AnalysisRequest{LabData: map[TestName]float64{TSH: 2.1, "cortisol": 12}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
