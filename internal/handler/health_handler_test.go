package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/gema-interview-api/internal/config"
)

type healthPayload struct {
	Success bool           `json:"success"`
	Data    HealthResponse `json:"data"`
}

type sessionCount int

func (s sessionCount) Count() int { return int(s) }

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName: "Mock Interview API",
		AppEnv:  "test",
		AI:      config.AIConfig{Provider: "openai"},
		Interview: config.InterviewConfig{
			QuestionSource: config.QuestionSourceStatic,
		},
	}

	app := fiber.New()
	app.Get("/api/v1/health", HealthCheck(cfg, sessionCount(3)))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload healthPayload
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, "openai", payload.Data.AIProvider)
	assert.Equal(t, "static", payload.Data.QuestionSource)
	assert.Equal(t, 3, payload.Data.ActiveSessions)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckWithoutSessionStore(t *testing.T) {
	app := fiber.New()
	app.Get("/health", HealthCheck(config.Config{AppName: "api"}, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	assert.NoError(t, err)

	var payload healthPayload
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 0, payload.Data.ActiveSessions)
}
