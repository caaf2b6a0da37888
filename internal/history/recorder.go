package history

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// Recorder adapts a Store to the analyzer's recording hook.
type Recorder struct {
	store  Store
	logger *logrus.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, logger *logrus.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// RecordAnalysis saves the summary of one analysis.
func (r *Recorder) RecordAnalysis(ctx context.Context, correlationID string, req *domain.AnalysisRequest, report *domain.AnalysisReport) error {
	record := NewRecord(correlationID, req, report)
	if err := r.store.Save(ctx, record); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"correlation_id": correlationID,
		"history_id":     record.ID,
		"mode":           record.Mode,
	}).Debug("Analysis recorded")
	return nil
}
