package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/service"
	"github.com/noah-isme/gema-interview-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

// handleError maps service errors onto HTTP responses.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "interview session not found")
	case errors.Is(err, service.ErrReportNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "interview report not found")
	case errors.Is(err, service.ErrNotAwaitingAnswer), errors.Is(err, service.ErrInterviewIncomplete):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGenerationUnavailable):
		return utils.SendRetryableError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrNoQuestions):
		return utils.SendRetryableError(c, fiber.StatusServiceUnavailable, "no interview questions could be generated, please retry")
	case errors.Is(err, service.ErrReportsDisabled):
		return utils.SendError(c, fiber.StatusNotImplemented, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return utils.SendRetryableError(c, fiber.StatusGatewayTimeout, "request timed out")
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("unhandled request error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
