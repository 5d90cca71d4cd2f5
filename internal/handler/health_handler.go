package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// SessionCounter reports how many interview sessions are live.
type SessionCounter interface {
	Count() int
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Service        string    `json:"service"`
	Environment    string    `json:"environment"`
	AIProvider     string    `json:"ai_provider"`
	QuestionSource string    `json:"question_source"`
	ActiveSessions int       `json:"active_sessions"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, sessions SessionCounter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:         "ok",
			Timestamp:      time.Now().UTC(),
			Service:        cfg.AppName,
			Environment:    cfg.AppEnv,
			AIProvider:     cfg.AI.Provider,
			QuestionSource: cfg.Interview.QuestionSource,
		}
		if sessions != nil {
			payload.ActiveSessions = sessions.Count()
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
