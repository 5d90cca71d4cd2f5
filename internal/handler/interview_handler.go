package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// InterviewHandlerOptions tunes the per-session answer limiter.
type InterviewHandlerOptions struct {
	AnswerRateLimit  int
	AnswerRateWindow time.Duration
}

// InterviewHandler exposes the interview flow over JSON.
type InterviewHandler struct {
	service service.InterviewService
	options InterviewHandlerOptions
	logger  zerolog.Logger
}

// NewInterviewHandler constructs an interview handler.
func NewInterviewHandler(service service.InterviewService, options InterviewHandlerOptions, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		options: options,
		logger:  logger.With().Str("component", "interview_handler").Logger(),
	}
}

// Register wires interview routes.
func (h *InterviewHandler) Register(router fiber.Router) {
	router.Post("", h.start)
	router.Get("/:id", h.get)
	router.Post("/:id/begin", h.begin)
	router.Post("/:id/answers", middleware.RateLimit("interview_answers", h.options.AnswerRateLimit, h.options.AnswerRateWindow), h.answer)
	router.Post("/:id/next", h.next)
	router.Post("/:id/summary", h.summary)
	router.Post("/:id/reset", h.reset)
}

func (h *InterviewHandler) start(c *fiber.Ctx) error {
	session, err := h.service.Start(requestContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	c.Location("/api/v1/interviews/" + session.ID)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interview created", session)
}

func (h *InterviewHandler) get(c *fiber.Ctx) error {
	session, err := h.service.Get(requestContext(c), sessionID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview session", session)
}

func (h *InterviewHandler) begin(c *fiber.Ctx) error {
	session, err := h.service.Begin(requestContext(c), sessionID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview started", session)
}

func (h *InterviewHandler) answer(c *fiber.Ctx) error {
	var payload dto.AnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Answer(requestContext(c), sessionID(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *InterviewHandler) next(c *fiber.Ctx) error {
	session, err := h.service.Next(requestContext(c), sessionID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview advanced", session)
}

func (h *InterviewHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(requestContext(c), sessionID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview summary", summary)
}

func (h *InterviewHandler) reset(c *fiber.Ctx) error {
	session, err := h.service.Reset(requestContext(c), sessionID(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview reset", session)
}

func sessionID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("id"))
}
