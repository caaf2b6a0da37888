// Package service implements thyroid lab interpretation: status
// classification, literature pattern matching, the rule-only fallback and
// report rendering.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

// Analyzer runs one analysis end to end: the deterministic diagnosis first,
// then the optional narrative and history record.
type Analyzer struct {
	logger     *logrus.Logger
	knowledge  domain.KnowledgeSource
	literature *LiteratureEngine
	rules      *RuleEngine
	narrator   domain.NarrativeProvider
	recorder   domain.AnalysisRecorder
}

// NewAnalyzer creates an analyzer. knowledge, narrator and recorder may be nil.
func NewAnalyzer(
	logger *logrus.Logger,
	knowledge domain.KnowledgeSource,
	narrator domain.NarrativeProvider,
	recorder domain.AnalysisRecorder,
) *Analyzer {
	return &Analyzer{
		logger:     logger,
		knowledge:  knowledge,
		literature: NewLiteratureEngine(logger),
		rules:      NewRuleEngine(logger),
		narrator:   narrator,
		recorder:   recorder,
	}
}

// KnowledgeBase returns the snapshot analyses currently run against, or nil.
func (a *Analyzer) KnowledgeBase() *domain.KnowledgeBase {
	if a.knowledge == nil {
		return nil
	}
	return a.knowledge.Current()
}

// ReferenceRanges returns the table the next analysis will classify with.
func (a *Analyzer) ReferenceRanges() domain.ReferenceRanges {
	if kb := a.KnowledgeBase(); kb.HasPatterns() {
		return a.literature.ReferenceRanges(kb)
	}
	return a.rules.ReferenceRanges()
}

// Analyze validates req and produces the report. Only validation errors are
// returned; narrative and history failures are recorded on the report or
// logged.
func (a *Analyzer) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisReport, error) {
	startTime := time.Now()

	if req == nil {
		return nil, domain.NewValidationError("request", "request is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis request: %w", err)
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = logging.CorrelationID(ctx)
	}
	ctx = logging.WithCorrelationID(ctx, correlationID)
	log := logging.FromContext(ctx, a.logger)

	scoped := *req
	scoped.LabData = recognisedTests(req.LabData)
	scoped.CorrelationID = correlationID

	report := &domain.AnalysisReport{}
	if kb := a.KnowledgeBase(); kb.HasPatterns() {
		ranges := a.literature.ReferenceRanges(kb)
		diagnosis := a.literature.Analyze(kb, &scoped)
		report.Mode = domain.ModeLiterature
		report.Literature = diagnosis
		report.LabResults = BuildLabResults(scoped.LabData, ranges)
		report.Report = RenderLiteratureReport(diagnosis, scoped.LabData, ranges)
	} else {
		ranges := a.rules.ReferenceRanges()
		result := a.rules.Analyze(&scoped)
		report.Mode = domain.ModeRuleBased
		report.RuleBased = result
		report.LabResults = BuildLabResults(scoped.LabData, ranges)
		report.Report = RenderRuleReport(result, scoped.LabData, ranges)
	}

	if a.narrator != nil {
		narrative, err := a.narrator.Narrate(ctx, narrativeQuestion(&scoped, report), scoped.LabData)
		if err != nil {
			log.WithError(err).Warn("Narrative unavailable, returning diagnosis without it")
			report.NarrativeError = err.Error()
		} else {
			report.Narrative = narrative
		}
	}

	report.ProcessingTime = time.Since(startTime)

	if a.recorder != nil {
		if err := a.recorder.RecordAnalysis(ctx, correlationID, &scoped, report); err != nil {
			log.WithError(err).Warn("Failed to record analysis history")
		}
	}

	log.WithFields(logrus.Fields{
		"mode":            report.Mode,
		"tests":           len(scoped.LabData),
		"processing_time": report.ProcessingTime,
	}).Info("Analysis completed")

	return report, nil
}

// recognisedTests drops lab keys outside the supported test set.
func recognisedTests(labData map[domain.TestName]float64) map[domain.TestName]float64 {
	out := make(map[domain.TestName]float64, len(labData))
	for test, value := range labData {
		if test.IsValid() {
			out[test] = value
		}
	}
	return out
}

// narrativeQuestion uses the caller's question, or asks about the diagnosis.
func narrativeQuestion(req *domain.AnalysisRequest, report *domain.AnalysisReport) string {
	if req.Question != "" {
		return req.Question
	}
	switch {
	case report.Literature != nil:
		return "How should a thyroid panel with " + report.Literature.PatternMatch + " be interpreted?"
	case report.RuleBased != nil:
		return "What should a patient know about " + report.RuleBased.ThyroidStatus.DisplayName() + "?"
	default:
		return "How should these thyroid function results be interpreted?"
	}
}
