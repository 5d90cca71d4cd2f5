package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

func TestNewSessionResponseShowsCurrentQuestionAndProgress(t *testing.T) {
	intro := "Welcome"
	answer := "SUM adds numbers"
	feedback := "ok"
	score := 4
	session := models.InterviewSession{
		ID: "abc",
		State: models.SessionState{
			IntroMessage: &intro,
			Questions:    []string{"Q1", "Q2", "Q3"},
			Entries: []models.Entry{
				{Question: "Q1", Answer: &answer, Feedback: &feedback, Score: &score},
				{Question: "Q2"},
			},
		},
		CreatedAt: time.Now(),
	}

	response := NewSessionResponse(session)
	require.Equal(t, "recording", response.Phase)
	require.NotNil(t, response.CurrentQuestion)
	require.Equal(t, "Q2", *response.CurrentQuestion)
	require.Equal(t, ProgressResponse{Asked: 2, Answered: 1, Total: 3}, response.Progress)
	require.Len(t, response.Entries, 2)
	require.Equal(t, 1, response.Entries[1].Index)
	require.Nil(t, response.Summary)
}

func TestNewSummaryResponseRequiresFinalFields(t *testing.T) {
	feedback := "Great"
	score := 9
	recommendation := models.RecommendationHire
	state := models.SessionState{FinalFeedback: &feedback, FinalScore: &score, FinalRecommendation: &recommendation}

	summary := NewSummaryResponse(state)
	require.NotNil(t, summary)
	require.Equal(t, "Hire", summary.Recommendation)
	require.Equal(t, models.MaxFinalScore, summary.MaxScore)
	require.Nil(t, NewSummaryResponse(models.SessionState{}))
}

func TestAnswerRequestAllowsEmptyButNotMissingAnswer(t *testing.T) {
	validate := validator.New()
	empty := ""

	require.NoError(t, validate.Struct(AnswerRequest{Answer: &empty}))
	require.Error(t, validate.Struct(AnswerRequest{}))
}

func TestReportQueryRecommendationFilter(t *testing.T) {
	validate := validator.New()

	require.NoError(t, validate.Struct(ReportQuery{Recommendation: "Needs Improvement"}))
	require.Error(t, validate.Struct(ReportQuery{Recommendation: "Maybe"}))
}

func TestNewReportResponseDecodesTranscript(t *testing.T) {
	report := models.InterviewReport{
		ID:         7,
		SessionID:  "s",
		Transcript: []byte(`[{"question":"Q1","answer":"A1","feedback":"ok","score":3}]`),
	}

	response := NewReportResponse(report)
	require.Len(t, response.Entries, 1)
	require.Equal(t, "A1", *response.Entries[0].Answer)

	broken := NewReportResponse(models.InterviewReport{Transcript: []byte("{")})
	require.Empty(t, broken.Entries)
}

func TestNewPaginationMetaRoundsUp(t *testing.T) {
	require.Equal(t, 3, NewPaginationMeta(1, 10, 21).TotalPages)
	require.Zero(t, NewPaginationMeta(1, 0, 21).TotalPages)
}
