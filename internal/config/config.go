package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Question sources.
const (
	QuestionSourceLLM    = "llm"
	QuestionSourceStatic = "static"
)

// AIConfig selects the text-generation provider.
type AIConfig struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Model           string
	BaseURL         string
	MaxTokens       int
	Temperature     float32
	Timeout         time.Duration
}

// APIKey returns the key for the selected provider.
func (c AIConfig) APIKey() string {
	if c.Provider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// InterviewConfig tunes the interview flow.
type InterviewConfig struct {
	Topic            string
	QuestionCount    int
	QuestionSource   string
	SessionTTL       time.Duration
	QuestionCacheTTL time.Duration
	AnswerRateLimit  int
	AnswerRateWindow time.Duration
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName       string
	AppEnv        string
	AppPort       string
	LogLevel      string
	CORSOrigins   string
	DatabaseURL   string
	RedisURL      string
	NATSURL       string
	EventsChannel string
	JWTSecret     string
	AI            AIConfig
	Interview     InterviewConfig
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INTERVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Mock Interview API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("events.channel", "interview")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max_tokens", 512)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("interview.topic", "Excel")
	v.SetDefault("interview.question_count", 3)
	v.SetDefault("interview.question_source", QuestionSourceLLM)
	v.SetDefault("interview.session_ttl", "2h")
	v.SetDefault("interview.question_cache_ttl", "0s")
	v.SetDefault("interview.answer_rate_limit", 5)
	v.SetDefault("interview.answer_rate_window", "10s")

	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := parseDuration(v, "interview.session_ttl")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "interview.question_cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "interview.answer_rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		LogLevel:      strings.ToLower(v.GetString("log.level")),
		CORSOrigins:   v.GetString("cors.origins"),
		DatabaseURL:   v.GetString("database.url"),
		RedisURL:      v.GetString("redis.url"),
		NATSURL:       v.GetString("nats.url"),
		EventsChannel: v.GetString("events.channel"),
		JWTSecret:     v.GetString("jwt.secret"),
		AI: AIConfig{
			Provider:        strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			OpenAIAPIKey:    v.GetString("openai_api_key"),
			AnthropicAPIKey: v.GetString("anthropic_api_key"),
			Model:           v.GetString("ai.model"),
			BaseURL:         v.GetString("ai.base_url"),
			MaxTokens:       v.GetInt("ai.max_tokens"),
			Temperature:     float32(v.GetFloat64("ai.temperature")),
			Timeout:         aiTimeout,
		},
		Interview: InterviewConfig{
			Topic:            strings.TrimSpace(v.GetString("interview.topic")),
			QuestionCount:    v.GetInt("interview.question_count"),
			QuestionSource:   strings.ToLower(strings.TrimSpace(v.GetString("interview.question_source"))),
			SessionTTL:       sessionTTL,
			QuestionCacheTTL: cacheTTL,
			AnswerRateLimit:  v.GetInt("interview.answer_rate_limit"),
			AnswerRateWindow: rateWindow,
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Interview.QuestionCount <= 0 {
		return fmt.Errorf("interview question count must be positive, got %d", c.Interview.QuestionCount)
	}

	switch c.Interview.QuestionSource {
	case QuestionSourceLLM, QuestionSourceStatic:
	default:
		return fmt.Errorf("unsupported question source %q", c.Interview.QuestionSource)
	}

	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2")
	}

	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}
