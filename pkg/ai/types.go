package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrGeneration marks every failure to obtain text from the model provider.
var ErrGeneration = errors.New("text generation failed")

// Prompt is a single request to the text-generation model.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider to return a JSON object. Compliance is advisory.
	JSON bool
}

// Completion is the text returned by the model.
type Completion struct {
	Text  string
	Model string
}

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (Completion, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// New builds the generator for the configured provider.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIGenerator(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Logger:      cfg.Logger,
		})
	case ProviderAnthropic:
		return NewAnthropicGenerator(AnthropicConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Logger:      cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

// ProviderName reports the provider behind a generator.
func ProviderName(generator Generator) string {
	switch generator.(type) {
	case *OpenAIGenerator:
		return ProviderOpenAI
	case *AnthropicGenerator:
		return ProviderAnthropic
	default:
		return "unknown"
	}
}

func withTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func generationError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrGeneration, provider, err)
}
