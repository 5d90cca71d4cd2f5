package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicConfig configures the Anthropic generator.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	// BaseURL overrides the API endpoint, e.g. for a gateway.
	BaseURL string
	Logger  zerolog.Logger
}

// AnthropicGenerator implements Generator against the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicGenerator constructs a new generator.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaude4Sonnet20250514)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-interview-api/pkg/ai/anthropic"),
		logger: logger.With().Str("component", "anthropic_generator").Logger(),
	}, nil
}

// Generate sends the prompt to the Messages API and concatenates the text blocks.
func (g *AnthropicGenerator) Generate(parent context.Context, prompt Prompt) (Completion, error) {
	ctx, span := g.tracer.Start(parent, "anthropic.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Bool("json", prompt.JSON),
	))
	defer span.End()

	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	user := prompt.User
	if prompt.JSON {
		user += "\n\nRespond with a single JSON object and nothing else."
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   int64(g.cfg.MaxTokens),
		Temperature: anthropic.Float(float64(g.cfg.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}

	start := time.Now()
	message, err := g.client.Messages.New(ctx, params)
	generationDuration.WithLabelValues(ProviderAnthropic, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Completion{}, g.fail(span, err)
	}

	var builder strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			builder.WriteString(text.Text)
		}
	}
	if builder.Len() == 0 {
		return Completion{}, g.fail(span, fmt.Errorf("no text content returned from anthropic"))
	}

	g.logger.Debug().
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("anthropic message received")

	return Completion{
		Text:  strings.TrimSpace(builder.String()),
		Model: g.cfg.Model,
	}, nil
}

func (g *AnthropicGenerator) fail(span trace.Span, err error) error {
	generationFailures.WithLabelValues(ProviderAnthropic, g.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return generationError(ProviderAnthropic, err)
}
