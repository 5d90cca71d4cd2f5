package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/interview"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

type fixedEvaluator struct {
	mu  sync.Mutex
	err error
}

func (e *fixedEvaluator) Evaluate(context.Context, string, string) (interview.Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return interview.Evaluation{}, e.err
	}
	return interview.Evaluation{Feedback: "ok", Score: 5}, nil
}

func (e *fixedEvaluator) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(context.Context, []models.Entry) (interview.Summary, error) {
	return interview.Summary{Feedback: "Well done", Score: 8, Recommendation: models.RecommendationHire}, nil
}

type interviewStack struct {
	app       *fiber.App
	service   service.InterviewService
	evaluator *fixedEvaluator
}

func newInterviewStack(t *testing.T, questions int) interviewStack {
	t.Helper()

	logger := zerolog.Nop()
	evaluator := &fixedEvaluator{}
	controller := interview.NewController(interview.NewStaticProvider(), evaluator, fixedSummarizer{}, interview.ControllerConfig{QuestionCount: questions}, logger)
	svc := service.NewInterviewService(
		repository.NewSessionRepository(time.Hour, logger),
		nil,
		controller,
		service.NewInterviewEventPublisher(nil, "", nil, logger),
		validator.New(),
		service.InterviewServiceConfig{Provider: "static"},
		logger,
	)

	app := fiber.New()
	group := app.Group("/api/v1/interviews")
	NewInterviewHandler(svc, InterviewHandlerOptions{AnswerRateLimit: 100, AnswerRateWindow: time.Minute}, logger).Register(group)
	NewInterviewSocketHandler(svc, validator.New(), logger).Register(group)

	return interviewStack{app: app, service: svc, evaluator: evaluator}
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Details   json.RawMessage `json:"details"`
	Retryable bool            `json:"retryable"`
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}
