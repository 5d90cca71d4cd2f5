package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/interview"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

// Engine is the interview controller together with the name of the model provider
// backing it.
type Engine struct {
	Controller *interview.Controller
	Provider   string
}

// NewEngine wires the generator, question provider, evaluator and summarizer described
// by cfg. cache may be nil.
func NewEngine(cfg config.Config, cache *redis.Client, logger zerolog.Logger) (Engine, error) {
	generator, err := ai.New(ai.Config{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey(),
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return Engine{}, fmt.Errorf("create ai generator: %w", err)
	}

	topic := cfg.Interview.Topic

	var questions interview.QuestionProvider
	switch cfg.Interview.QuestionSource {
	case config.QuestionSourceStatic:
		questions = interview.NewStaticProvider()
	default:
		questions = interview.NewCachedProvider(
			interview.NewLLMProvider(generator, topic, logger),
			cache,
			cfg.Interview.QuestionCacheTTL,
			topic,
			logger,
		)
	}

	controller := interview.NewController(
		questions,
		interview.NewLLMEvaluator(generator, topic, logger),
		interview.NewLLMSummarizer(generator, topic, logger),
		interview.ControllerConfig{QuestionCount: cfg.Interview.QuestionCount},
		logger,
	)

	return Engine{Controller: controller, Provider: ai.ProviderName(generator)}, nil
}

// ParseLevel maps a configured level name onto zerolog, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	level, err := zerolog.ParseLevel(value)
	if err != nil || value == "" {
		return zerolog.InfoLevel
	}
	return level
}
