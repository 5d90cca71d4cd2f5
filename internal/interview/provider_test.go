package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

func TestLLMProviderReturnsFewerQuestionsWithoutError(t *testing.T) {
	generator := &scriptedGenerator{responses: []string{"1. What is VLOOKUP?\n2. What is a macro?"}}
	provider := NewLLMProvider(generator, "", zerolog.Nop())

	questions, err := provider.GenerateQuestions(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []string{"What is VLOOKUP?", "What is a macro?"}, questions)
	require.Contains(t, generator.prompts[0].User, "Generate 3 unique interview questions")
	require.Contains(t, generator.prompts[0].User, DefaultTopic)
}

func TestLLMProviderIntroFallsBackWhenEmpty(t *testing.T) {
	generator := &scriptedGenerator{responses: []string{"   "}}
	provider := NewLLMProvider(generator, "SQL", zerolog.Nop())

	intro, err := provider.GenerateIntro(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultIntro, intro)
	require.Contains(t, generator.prompts[0].User, "mock SQL interview")
}

func TestLLMProviderPropagatesGenerationFailure(t *testing.T) {
	generator := &scriptedGenerator{err: ai.ErrGeneration}
	provider := NewLLMProvider(generator, "", zerolog.Nop())

	_, err := provider.GenerateIntro(context.Background())
	require.ErrorIs(t, err, ai.ErrGeneration)

	_, err = provider.GenerateQuestions(context.Background(), 2)
	require.ErrorIs(t, err, ai.ErrGeneration)
}

func TestCachedProviderReusesQuestionSets(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	generator := &scriptedGenerator{responses: []string{"1. First?\n2. Second?\n3. Third?"}}
	provider := NewCachedProvider(NewLLMProvider(generator, "Excel", zerolog.Nop()), client, time.Minute, "Excel", zerolog.Nop())

	ctx := context.Background()
	first, err := provider.GenerateQuestions(ctx, 3)
	require.NoError(t, err)
	second, err := provider.GenerateQuestions(ctx, 3)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, generator.calls())
	require.True(t, mini.Exists("interview:questions:excel:3"))

	mini.FastForward(2 * time.Minute)
	require.False(t, mini.Exists("interview:questions:excel:3"))
}

func TestCachedProviderDisabledWithoutTTL(t *testing.T) {
	static := NewStaticProvider()
	require.Same(t, static, NewCachedProvider(static, nil, time.Minute, "", zerolog.Nop()))
	require.Same(t, static, NewCachedProvider(static, redis.NewClient(&redis.Options{}), 0, "", zerolog.Nop()))
}

func TestLLMEvaluatorFallsBackOnMalformedJSON(t *testing.T) {
	generator := &scriptedGenerator{responses: []string{`{"feedback": "unterminated`}}
	evaluator := NewLLMEvaluator(generator, "", zerolog.Nop())

	evaluation, err := evaluator.Evaluate(context.Background(), "Q", "A")
	require.NoError(t, err)
	require.Equal(t, "Could not parse feedback, please review manually.", evaluation.Feedback)
	require.Equal(t, 0, evaluation.Score)
	require.True(t, evaluation.Fallback)
	require.True(t, generator.prompts[0].JSON)
}

func TestLLMEvaluatorReturnsGenerationFailure(t *testing.T) {
	evaluator := NewLLMEvaluator(&scriptedGenerator{err: ai.ErrGeneration}, "", zerolog.Nop())

	_, err := evaluator.Evaluate(context.Background(), "Q", "A")
	require.True(t, errors.Is(err, ai.ErrGeneration))
}

func TestLLMSummarizerParsesAndFallsBack(t *testing.T) {
	entries := []models.Entry{{Question: "Q1", Answer: strPtr("A1"), Feedback: strPtr("ok"), Score: intPtr(4)}}
	generator := &scriptedGenerator{responses: []string{
		`{"final_feedback": "Good", "final_score": 8, "final_recommendation": "Hire"}`,
		`final_feedback: Good`,
	}}
	summarizer := NewLLMSummarizer(generator, "", zerolog.Nop())

	summary, err := summarizer.Summarize(context.Background(), entries)
	require.NoError(t, err)
	require.Equal(t, Summary{Feedback: "Good", Score: 8, Recommendation: models.RecommendationHire}, summary)
	require.Contains(t, generator.prompts[0].User, "Q: Q1\nA: A1\nF: ok (Score 4)")

	summary, err = summarizer.Summarize(context.Background(), entries)
	require.NoError(t, err)
	require.True(t, summary.Fallback)
	require.Equal(t, FallbackSummaryFeedback, summary.Feedback)
}

func intPtr(value int) *int {
	return &value
}
