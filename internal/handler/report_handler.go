package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

// ReportHandler serves archived interview reports to reviewers.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs a report handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register wires report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/sessions/:sessionId", h.getBySession)
	router.Get("/:id", h.get)
}

func (h *ReportHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	query := dto.ReportQuery{
		Page:           page,
		PageSize:       pageSize,
		Topic:          strings.TrimSpace(c.Query("topic")),
		Recommendation: strings.TrimSpace(c.Query("recommendation")),
	}

	response, err := h.service.List(requestContext(c), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.OK(c, response.Items, "interview reports", response.Pagination)
}

func (h *ReportHandler) get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid report id")
	}

	report, err := h.service.Get(requestContext(c), uint(id))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview report", report)
}

func (h *ReportHandler) getBySession(c *fiber.Ctx) error {
	report, err := h.service.GetBySession(requestContext(c), c.Params("sessionId"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "interview report", report)
}
