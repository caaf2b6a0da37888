package external

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

// fakeChatModel returns canned replies and records the prompts it saw.
type fakeChatModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	delay    time.Duration
	calls    int
	messages [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls++
	f.messages = append(f.messages, input)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testNarrativeConfig() domain.NarrativeConfig {
	return domain.NarrativeConfig{
		Timeout:          time.Second,
		RateLimit:        1000,
		FailureThreshold: 2,
	}
}

func TestChatNarrator_Narrate(t *testing.T) {
	fake := &fakeChatModel{reply: "  Your TSH is mildly raised.  "}
	narrator := NewChatNarrator(fake, testNarrativeConfig(), logging.Discard())

	narrative, err := narrator.Narrate(context.Background(), "What does this mean?", map[domain.TestName]float64{
		domain.FreeT4: 1.2,
		domain.TSH:    6.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "Your TSH is mildly raised.", narrative)
	require.Len(t, fake.messages, 1)
	require.Len(t, fake.messages[0], 2)
	assert.Equal(t, schema.System, fake.messages[0][0].Role)
	assert.Equal(t, "What does this mean?\n\nLab values:\n- TSH: 6.5\n- Free T4: 1.2", fake.messages[0][1].Content)
}

func TestChatNarrator_EmptyReply(t *testing.T) {
	narrator := NewChatNarrator(&fakeChatModel{reply: "   "}, testNarrativeConfig(), logging.Discard())

	_, err := narrator.Narrate(context.Background(), "q", nil)

	assert.ErrorIs(t, err, ErrEmptyNarrative)
}

func TestChatNarrator_Timeout(t *testing.T) {
	config := testNarrativeConfig()
	config.Timeout = 20 * time.Millisecond
	narrator := NewChatNarrator(&fakeChatModel{reply: "late", delay: time.Second}, config, logging.Discard())

	_, err := narrator.Narrate(context.Background(), "q", nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChatNarrator_CircuitBreakerOpens(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("503 service unavailable")}
	narrator := NewChatNarrator(fake, testNarrativeConfig(), logging.Discard())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := narrator.Narrate(ctx, "q", nil)
		assert.Error(t, err)
	}

	_, err := narrator.Narrate(ctx, "q", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, fake.callCount(), "open breaker must not reach the model")
}

func TestNewOpenAINarrator_RequiresModel(t *testing.T) {
	_, err := NewOpenAINarrator(context.Background(), domain.NarrativeConfig{}, logging.Discard())

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestDisabledNarrator(t *testing.T) {
	_, err := DisabledNarrator{}.Narrate(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrNarrativeDisabled)
}
