package domain

import (
	"testing"
	"time"
)

func TestAnalyzerError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Basic error",
			code:      ErrInvalidInput,
			message:   "No lab data supplied",
			details:   "lab_data must contain at least one recognised test",
			requestID: "req-123",
		},
		{
			name:      "Knowledge base error",
			code:      ErrKnowledgeBase,
			message:   "Knowledge base reload failed",
			details:   "unexpected end of JSON input",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAnalyzerError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}

			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}

			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}

			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "String validation error",
			field:   "lab_data.cortisol",
			message: "unsupported test",
			value:   "cortisol",
		},
		{
			name:    "Numeric validation error",
			field:   "lab_data.TSH",
			message: "must not be negative",
			value:   -1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}

			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}

			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	constants := map[string]string{
		"ErrInvalidInput":         ErrInvalidInput,
		"ErrExtraction":           ErrExtraction,
		"ErrKnowledgeBase":        ErrKnowledgeBase,
		"ErrNarrativeUnavailable": ErrNarrativeUnavailable,
		"ErrStorage":              ErrStorage,
		"ErrInternalServer":       ErrInternalServer,
	}

	expectedValues := map[string]string{
		"ErrInvalidInput":         "INVALID_INPUT",
		"ErrExtraction":           "EXTRACTION_ERROR",
		"ErrKnowledgeBase":        "KNOWLEDGE_BASE_ERROR",
		"ErrNarrativeUnavailable": "NARRATIVE_UNAVAILABLE",
		"ErrStorage":              "STORAGE_ERROR",
		"ErrInternalServer":       "INTERNAL_SERVER_ERROR",
	}

	for name, actual := range constants {
		expected := expectedValues[name]
		if actual != expected {
			t.Errorf("Expected %s to be %s, got %s", name, expected, actual)
		}
	}
}

func TestExtractionMissString(t *testing.T) {
	section := ExtractionMiss{Section: "2.2.3"}
	if got := section.String(); got != "section 2.2.3 not found" {
		t.Errorf("Unexpected string %q", got)
	}

	label := ExtractionMiss{Section: "2.2.1", Label: "common causes"}
	if got := label.String(); got != `label "common causes" not found in section 2.2.1` {
		t.Errorf("Unexpected string %q", got)
	}
}
