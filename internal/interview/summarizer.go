package interview

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/observability"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

// Summary is the aggregate verdict of an interview.
type Summary struct {
	Feedback       string                `json:"final_feedback"`
	Score          int                   `json:"final_score"`
	Recommendation models.Recommendation `json:"final_recommendation"`
	Fallback       bool                  `json:"fallback"`
}

// Summarizer turns the transcript into final feedback, score and recommendation.
type Summarizer interface {
	Summarize(ctx context.Context, entries []models.Entry) (Summary, error)
}

// LLMSummarizer summarizes with the text-generation model.
type LLMSummarizer struct {
	generator ai.Generator
	topic     string
	logger    zerolog.Logger
}

// NewLLMSummarizer constructs a model-backed summarizer.
func NewLLMSummarizer(generator ai.Generator, topic string, logger zerolog.Logger) *LLMSummarizer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &LLMSummarizer{
		generator: generator,
		topic:     topic,
		logger:    logger.With().Str("component", "interview_summarizer").Logger(),
	}
}

// Summarize applies the same fallback discipline as answer evaluation.
func (s *LLMSummarizer) Summarize(ctx context.Context, entries []models.Entry) (Summary, error) {
	completion, err := s.generator.Generate(ctx, ai.Prompt{
		System: interviewerSystemPrompt(s.topic),
		User:   summaryPrompt(BuildTranscript(entries)),
		JSON:   true,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summarize interview: %w", err)
	}

	result := ParseSummary(completion.Text)
	if result.Fallback {
		observability.ParseFallbacks().WithLabelValues("summary").Inc()
		s.logger.Warn().Err(result.Reason).Int("entries", len(entries)).Msg("summary output unparsable; using fallback")
	}
	return result.Value, nil
}
