package interview

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/observability"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

// Evaluation is the feedback and 0-5 score for one answer.
type Evaluation struct {
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
	Fallback bool   `json:"fallback"`
}

// Evaluator grades one answer. Unparsable model output never surfaces as an error;
// only a failure to reach the model does.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (Evaluation, error)
}

// LLMEvaluator grades answers with the text-generation model.
type LLMEvaluator struct {
	generator ai.Generator
	topic     string
	logger    zerolog.Logger
}

// NewLLMEvaluator constructs a model-backed evaluator.
func NewLLMEvaluator(generator ai.Generator, topic string, logger zerolog.Logger) *LLMEvaluator {
	if topic == "" {
		topic = DefaultTopic
	}
	return &LLMEvaluator{
		generator: generator,
		topic:     topic,
		logger:    logger.With().Str("component", "answer_evaluator").Logger(),
	}
}

// Evaluate asks the model for {feedback, score} and falls back on malformed output.
func (e *LLMEvaluator) Evaluate(ctx context.Context, question, answer string) (Evaluation, error) {
	completion, err := e.generator.Generate(ctx, ai.Prompt{
		System: interviewerSystemPrompt(e.topic),
		User:   evaluationPrompt(question, answer),
		JSON:   true,
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate answer: %w", err)
	}

	result := ParseEvaluation(completion.Text)
	if result.Fallback {
		observability.ParseFallbacks().WithLabelValues("evaluation").Inc()
		e.logger.Warn().Err(result.Reason).Msg("evaluation output unparsable; using fallback")
	}
	return result.Value, nil
}
