package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// ErrReportNotFound is returned when no archived report matches.
var ErrReportNotFound = errors.New("interview report not found")

// ReportFilter narrows archived report queries.
type ReportFilter struct {
	Page           int
	PageSize       int
	Topic          string
	Recommendation string
}

// ReportRepository archives completed interviews.
type ReportRepository interface {
	Create(ctx context.Context, report *models.InterviewReport) error
	GetByID(ctx context.Context, id uint) (models.InterviewReport, error)
	GetBySessionID(ctx context.Context, sessionID string) (models.InterviewReport, error)
	List(ctx context.Context, filter ReportFilter) ([]models.InterviewReport, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs the report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.InterviewReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.InterviewReport, error) {
	var report models.InterviewReport
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InterviewReport{}, ErrReportNotFound
		}
		return models.InterviewReport{}, err
	}
	return report, nil
}

func (r *reportRepository) GetBySessionID(ctx context.Context, sessionID string) (models.InterviewReport, error) {
	var report models.InterviewReport
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InterviewReport{}, ErrReportNotFound
		}
		return models.InterviewReport{}, err
	}
	return report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.InterviewReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InterviewReport{})

	if topic := strings.TrimSpace(filter.Topic); topic != "" {
		query = query.Where("LOWER(topic) = ?", strings.ToLower(topic))
	}

	if filter.Recommendation != "" {
		query = query.Where("final_recommendation = ?", filter.Recommendation)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var reports []models.InterviewReport
	if err := query.Order("created_at DESC").Order("id DESC").Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}
