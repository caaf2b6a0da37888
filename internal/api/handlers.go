package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/middleware"
)

// AnalyzeRequest is the JSON body of POST /api/v1/analyze. Lab keys accept
// the canonical names and common aliases; unrecognised keys are ignored.
type AnalyzeRequest struct {
	LabData     map[string]float64 `json:"lab_data" binding:"required"`
	Symptoms    []string           `json:"symptoms"`
	Age         *int               `json:"age"`
	Gender      string             `json:"gender"`
	Pregnancy   bool               `json:"pregnancy"`
	Medications []string           `json:"medications"`
	BMI         *float64           `json:"bmi"`
	Question    string             `json:"question"`
}

// toDomain converts the body, rejecting negative lab values.
func (r *AnalyzeRequest) toDomain(correlationID string) (*domain.AnalysisRequest, error) {
	labData := make(map[domain.TestName]float64, len(r.LabData))
	for key, value := range r.LabData {
		test, err := domain.ParseTestName(key)
		if err != nil {
			continue
		}
		if value < 0 {
			return nil, domain.NewValidationError("lab_data."+key, "must not be negative", value)
		}
		labData[test] = value
	}

	return &domain.AnalysisRequest{
		LabData:  labData,
		Symptoms: r.Symptoms,
		Patient: domain.PatientContext{
			Age:         r.Age,
			Gender:      r.Gender,
			Pregnancy:   r.Pregnancy,
			Medications: r.Medications,
			BMI:         r.BMI,
		},
		Question:      r.Question,
		CorrelationID: correlationID,
	}, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	knowledge := gin.H{"loaded": false}
	if kb := s.deps.Analyzer.KnowledgeBase(); kb != nil {
		knowledge = gin.H{
			"loaded":   true,
			"version":  kb.Version,
			"patterns": len(kb.Patterns),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"version":        Version,
		"knowledge_base": knowledge,
		"history":        s.deps.History != nil,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var body AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return
	}

	req, err := body.toDomain(middleware.GetCorrelationID(c))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid lab data", err.Error())
		return
	}

	report, err := s.deps.Analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid lab data", err.Error())
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Analysis failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleReferenceRanges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"reference_ranges": s.deps.Analyzer.ReferenceRanges(),
	})
}

func (s *Server) handlePatterns(c *gin.Context) {
	kb := s.deps.Analyzer.KnowledgeBase()
	if kb == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrKnowledgeBase, "Knowledge base not loaded",
			domain.ErrKnowledgeBaseNotLoaded.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"version":   kb.Version,
		"source":    kb.Source,
		"parsed_at": kb.ParsedAt,
		"patterns":  kb.Patterns,
		"qa_pairs":  kb.QAPairs,
	})
}

func (s *Server) handleReload(c *gin.Context) {
	if s.deps.Reload == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrKnowledgeBase, "Knowledge base reload is not configured", "")
		return
	}

	kb, err := s.deps.Reload()
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrKnowledgeBase, "Knowledge base reload failed", err.Error())
		return
	}

	s.deps.Logger.WithField("version", kb.Version).Info("Knowledge base reloaded on request")
	c.JSON(http.StatusOK, gin.H{
		"version":  kb.Version,
		"patterns": len(kb.Patterns),
		"qa_pairs": len(kb.QAPairs),
	})
}

func (s *Server) handleListHistory(c *gin.Context) {
	if s.deps.History == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStorage, "Analysis history is disabled", "")
		return
	}

	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid limit", err.Error())
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid offset", err.Error())
		return
	}

	ctx := c.Request.Context()
	records, err := s.deps.History.List(ctx, limit, offset)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrStorage, "Failed to list history", err.Error())
		return
	}
	total, err := s.deps.History.Count(ctx)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrStorage, "Failed to count history", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleGetHistory(c *gin.Context) {
	if s.deps.History == nil {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrStorage, "Analysis history is disabled", "")
		return
	}

	record, err := s.deps.History.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, domain.ErrInvalidInput, "History record not found", c.Param("id"))
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrStorage, "Failed to read history", err.Error())
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAnalyzerError(code, message, details, middleware.GetCorrelationID(c)))
}

// queryInt parses a non-negative integer query parameter.
func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", raw)
	}
	return n, nil
}
