package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/repository"
)

type reportRepoStub struct {
	reports []models.InterviewReport
	filter  repository.ReportFilter
}

func (r *reportRepoStub) Create(_ context.Context, report *models.InterviewReport) error {
	report.ID = uint(len(r.reports) + 1)
	r.reports = append(r.reports, *report)
	return nil
}

func (r *reportRepoStub) GetByID(_ context.Context, id uint) (models.InterviewReport, error) {
	for _, report := range r.reports {
		if report.ID == id {
			return report, nil
		}
	}
	return models.InterviewReport{}, repository.ErrReportNotFound
}

func (r *reportRepoStub) GetBySessionID(_ context.Context, sessionID string) (models.InterviewReport, error) {
	for _, report := range r.reports {
		if report.SessionID == sessionID {
			return report, nil
		}
	}
	return models.InterviewReport{}, repository.ErrReportNotFound
}

func (r *reportRepoStub) List(_ context.Context, filter repository.ReportFilter) ([]models.InterviewReport, int64, error) {
	r.filter = filter
	return r.reports, int64(len(r.reports)), nil
}

func TestReportServiceListAppliesPagingDefaults(t *testing.T) {
	repo := &reportRepoStub{}
	require.NoError(t, repo.Create(context.Background(), &models.InterviewReport{SessionID: "a", FinalRecommendation: "Hire"}))
	svc := NewReportService(repo, validator.New(), testLogger())

	list, err := svc.List(context.Background(), dto.ReportQuery{Topic: "  Excel "})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, 1, list.Pagination.Page)
	require.Equal(t, defaultReportPageSize, list.Pagination.PageSize)
	require.Equal(t, 1, list.Pagination.TotalPages)
	require.Equal(t, "Excel", repo.filter.Topic)

	_, err = svc.List(context.Background(), dto.ReportQuery{PageSize: 500})
	require.Error(t, err)
}

func TestReportServiceLookups(t *testing.T) {
	repo := &reportRepoStub{}
	require.NoError(t, repo.Create(context.Background(), &models.InterviewReport{SessionID: "abc"}))
	svc := NewReportService(repo, nil, testLogger())

	report, err := svc.GetBySession(context.Background(), " abc ")
	require.NoError(t, err)
	require.Equal(t, uint(1), report.ID)

	_, err = svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportServiceDisabledWithoutRepository(t *testing.T) {
	svc := NewReportService(nil, nil, testLogger())

	_, err := svc.List(context.Background(), dto.ReportQuery{})
	require.ErrorIs(t, err, ErrReportsDisabled)
	_, err = svc.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrReportsDisabled)
}
