package domain

import (
	"errors"
	"fmt"
	"time"
)

// AnalyzerError represents a standardized error response
type AnalyzerError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput         = "INVALID_INPUT"
	ErrExtraction           = "EXTRACTION_ERROR"
	ErrKnowledgeBase        = "KNOWLEDGE_BASE_ERROR"
	ErrNarrativeUnavailable = "NARRATIVE_UNAVAILABLE"
	ErrStorage              = "STORAGE_ERROR"
	ErrInternalServer       = "INTERNAL_SERVER_ERROR"
)

// Sentinel errors shared across packages.
var (
	ErrNotFound               = errors.New("not found")
	ErrEmptyDocument          = errors.New("document is empty")
	ErrNoLabData              = errors.New("at least one lab value is required")
	ErrKnowledgeBaseNotLoaded = errors.New("knowledge base not loaded")
	ErrInvalidTestName        = errors.New("invalid lab test name")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAnalyzerError creates a new AnalyzerError with timestamp
func NewAnalyzerError(code, message, details, requestID string) *AnalyzerError {
	return &AnalyzerError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ExtractionMiss records a section or label the parser expected but did not
// find. Misses are not errors; they let an operator fix the source document.
type ExtractionMiss struct {
	Section string `json:"section"`
	Label   string `json:"label"`
}

// String renders the miss for logs.
func (m ExtractionMiss) String() string {
	if m.Label == "" {
		return fmt.Sprintf("section %s not found", m.Section)
	}
	return fmt.Sprintf("label %q not found in section %s", m.Label, m.Section)
}
