package domain

import (
	"context"
)

// KnowledgeSource yields the knowledge base snapshot current at call time.
// A nil snapshot means no literature is loaded.
type KnowledgeSource interface {
	Current() *KnowledgeBase
}

// NarrativeProvider produces optional supplementary text for an analysis.
// Failures never affect the deterministic diagnosis.
type NarrativeProvider interface {
	Narrate(ctx context.Context, question string, labData map[TestName]float64) (string, error)
}

// AnalysisRecorder persists a summary of every completed analysis
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, correlationID string, req *AnalysisRequest, report *AnalysisReport) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
