package external

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

const narrativeSystemPrompt = "You explain thyroid function test results to patients in plain language. " +
	"Describe what the values may mean and what to discuss with a clinician. " +
	"Do not contradict the supplied diagnosis and do not prescribe treatment."

// ChatNarrator asks a chat model for a short narrative. Calls are rate
// limited, bounded by a timeout and guarded by a circuit breaker.
type ChatNarrator struct {
	model   model.BaseChatModel
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logrus.Logger
}

// NewChatNarrator wraps an existing chat model.
func NewChatNarrator(cm model.BaseChatModel, config domain.NarrativeConfig, logger *logrus.Logger) *ChatNarrator {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	return &ChatNarrator{
		model: cm,
		breaker: newCircuitBreaker("narrative", CircuitBreakerConfig{
			FailureThreshold: config.FailureThreshold,
		}, logger),
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		timeout: config.Timeout,
		logger:  logger,
	}
}

// NewOpenAINarrator builds a narrator on an OpenAI-compatible endpoint.
func NewOpenAINarrator(ctx context.Context, config domain.NarrativeConfig, logger *logrus.Logger) (*ChatNarrator, error) {
	if config.Model == "" {
		return nil, domain.NewValidationError("narrative.model", "model is required", config.Model)
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: config.BaseURL,
		APIKey:  config.APIKey,
		Model:   config.Model,
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewChatNarrator(chatModel, config, logger), nil
}

// Narrate implements domain.NarrativeProvider.
func (n *ChatNarrator) Narrate(ctx context.Context, question string, labData map[domain.TestName]float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: narrativeSystemPrompt},
		{Role: schema.User, Content: narrativePrompt(question, labData)},
	}

	result, err := n.breaker.Execute(func() (interface{}, error) {
		resp, err := n.model.Generate(ctx, messages)
		if err != nil {
			return nil, err
		}
		content := strings.TrimSpace(resp.Content)
		if content == "" {
			return nil, ErrEmptyNarrative
		}
		return content, nil
	})
	if err != nil {
		n.logger.WithError(err).WithField("breaker_state", n.breaker.State().String()).
			Warn("Narrative generation failed")
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}

	return result.(string), nil
}

// narrativePrompt lists the lab values in reporting order after the question.
func narrativePrompt(question string, labData map[domain.TestName]float64) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nLab values:")
	for _, test := range domain.AllTestNames() {
		value, ok := labData[test]
		if !ok {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(test.DisplayName())
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	}
	return b.String()
}
