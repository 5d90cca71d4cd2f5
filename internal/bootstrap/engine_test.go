package bootstrap

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

func TestNewEngineSelectsProvider(t *testing.T) {
	cfg := config.Config{
		AI: config.AIConfig{Provider: "anthropic", AnthropicAPIKey: "key", Model: "claude", Timeout: time.Second},
		Interview: config.InterviewConfig{
			Topic:          "Excel",
			QuestionCount:  2,
			QuestionSource: config.QuestionSourceStatic,
		},
	}

	engine, err := NewEngine(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, engine.Controller)
	require.Equal(t, ai.ProviderAnthropic, engine.Provider)
}

func TestNewEngineRejectsUnknownProvider(t *testing.T) {
	_, err := NewEngine(config.Config{AI: config.AIConfig{Provider: "mystery"}}, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}
