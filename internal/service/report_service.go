package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/repository"
)

const (
	defaultReportPageSize = 20
	maxReportPageSize     = 100
)

var (
	// ErrReportNotFound indicates no archived report matches.
	ErrReportNotFound = repository.ErrReportNotFound
	// ErrReportsDisabled indicates no archive database is configured.
	ErrReportsDisabled = errors.New("interview report archive is disabled")
)

// ReportService exposes archived interview reports.
type ReportService interface {
	List(ctx context.Context, query dto.ReportQuery) (dto.ReportListResponse, error)
	Get(ctx context.Context, id uint) (dto.ReportResponse, error)
	GetBySession(ctx context.Context, sessionID string) (dto.ReportResponse, error)
}

type reportService struct {
	repo      repository.ReportRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReportService constructs the report service. A nil repository disables it.
func NewReportService(repo repository.ReportRepository, validate *validator.Validate, logger zerolog.Logger) ReportService {
	if validate == nil {
		validate = validator.New()
	}
	return &reportService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "report_service").Logger(),
	}
}

func (s *reportService) List(ctx context.Context, query dto.ReportQuery) (dto.ReportListResponse, error) {
	if s.repo == nil {
		return dto.ReportListResponse{}, ErrReportsDisabled
	}
	if err := s.validator.Struct(query); err != nil {
		return dto.ReportListResponse{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultReportPageSize
	}
	if pageSize > maxReportPageSize {
		pageSize = maxReportPageSize
	}

	reports, total, err := s.repo.List(ctx, repository.ReportFilter{
		Page:           page,
		PageSize:       pageSize,
		Topic:          strings.TrimSpace(query.Topic),
		Recommendation: query.Recommendation,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list interview reports")
		return dto.ReportListResponse{}, err
	}

	return dto.NewReportListResponse(reports, dto.NewPaginationMeta(page, pageSize, total)), nil
}

func (s *reportService) Get(ctx context.Context, id uint) (dto.ReportResponse, error) {
	if s.repo == nil {
		return dto.ReportResponse{}, ErrReportsDisabled
	}
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ReportResponse{}, err
	}
	return dto.NewReportResponse(report), nil
}

func (s *reportService) GetBySession(ctx context.Context, sessionID string) (dto.ReportResponse, error) {
	if s.repo == nil {
		return dto.ReportResponse{}, ErrReportsDisabled
	}
	report, err := s.repo.GetBySessionID(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return dto.ReportResponse{}, err
	}
	return dto.NewReportResponse(report), nil
}
