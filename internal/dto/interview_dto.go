package dto

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// AnswerRequest carries the candidate's answer. An empty answer is accepted, a missing one is not.
type AnswerRequest struct {
	Answer *string `json:"answer" validate:"required,max=8000"`
}

// EntryResponse is one question cycle as shown to clients.
type EntryResponse struct {
	Index    int     `json:"index"`
	Question string  `json:"question"`
	Answer   *string `json:"answer,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
	Score    *int    `json:"score,omitempty"`
}

// ProgressResponse counts answered questions against the total.
type ProgressResponse struct {
	Asked    int `json:"asked"`
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// SummaryResponse is the final verdict of a finished interview.
type SummaryResponse struct {
	Feedback       string `json:"feedback"`
	Score          int    `json:"score"`
	MaxScore       int    `json:"max_score"`
	Recommendation string `json:"recommendation"`
}

// SessionResponse is the full view of an interview session.
type SessionResponse struct {
	ID              string           `json:"id"`
	Phase           string           `json:"phase"`
	IntroMessage    *string          `json:"intro_message,omitempty"`
	CurrentQuestion *string          `json:"current_question,omitempty"`
	Progress        ProgressResponse `json:"progress"`
	Entries         []EntryResponse  `json:"entries"`
	Summary         *SummaryResponse `json:"summary,omitempty"`
	OutroMessage    *string          `json:"outro_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewEntryResponses converts transcript entries into DTOs.
func NewEntryResponses(entries []models.Entry) []EntryResponse {
	return lo.Map(entries, func(entry models.Entry, index int) EntryResponse {
		return EntryResponse{
			Index:    index,
			Question: entry.Question,
			Answer:   entry.Answer,
			Feedback: entry.Feedback,
			Score:    entry.Score,
		}
	})
}

// NewSummaryResponse returns nil until the session has been summarized.
func NewSummaryResponse(state models.SessionState) *SummaryResponse {
	if !state.Summarized() || state.FinalScore == nil || state.FinalRecommendation == nil {
		return nil
	}
	return &SummaryResponse{
		Feedback:       *state.FinalFeedback,
		Score:          *state.FinalScore,
		MaxScore:       models.MaxFinalScore,
		Recommendation: string(*state.FinalRecommendation),
	}
}

// NewSessionResponse converts a session snapshot into its client view.
func NewSessionResponse(session models.InterviewSession) SessionResponse {
	state := session.State
	response := SessionResponse{
		ID:           session.ID,
		Phase:        string(state.Phase()),
		IntroMessage: state.IntroMessage,
		Progress: ProgressResponse{
			Asked:    len(state.Entries),
			Answered: state.AnsweredCount(),
			Total:    len(state.Questions),
		},
		Entries:      NewEntryResponses(state.Entries),
		Summary:      NewSummaryResponse(state),
		OutroMessage: state.OutroMessage,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
	if open, _ := state.OpenEntry(); open != nil {
		question := open.Question
		response.CurrentQuestion = &question
	}
	return response
}

// AnswerResponse reports the evaluated entry together with the updated session.
type AnswerResponse struct {
	Recorded *EntryResponse  `json:"recorded,omitempty"`
	Session  SessionResponse `json:"session"`
}

// ReportQuery filters archived reports.
type ReportQuery struct {
	Page           int    `query:"page" validate:"omitempty,min=1"`
	PageSize       int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	Topic          string `query:"topic" validate:"omitempty,max=128"`
	Recommendation string `query:"recommendation" validate:"omitempty,oneof=Hire 'Needs Improvement' Reject"`
}

// ReportResponse is an archived interview.
type ReportResponse struct {
	ID                  uint            `json:"id"`
	SessionID           string          `json:"session_id"`
	Topic               string          `json:"topic"`
	Provider            string          `json:"provider"`
	IntroMessage        string          `json:"intro_message"`
	Entries             []EntryResponse `json:"entries"`
	QuestionCount       int             `json:"question_count"`
	AverageScore        float64         `json:"average_score"`
	FinalFeedback       string          `json:"final_feedback"`
	FinalScore          int             `json:"final_score"`
	FinalRecommendation string          `json:"final_recommendation"`
	FallbackUsed        bool            `json:"fallback_used"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ReportListResponse wraps a page of reports.
type ReportListResponse struct {
	Items      []ReportResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewReportResponse converts an archived report. A transcript that fails to decode is
// returned empty.
func NewReportResponse(report models.InterviewReport) ReportResponse {
	var entries []models.Entry
	if len(report.Transcript) > 0 {
		_ = json.Unmarshal(report.Transcript, &entries)
	}

	return ReportResponse{
		ID:                  report.ID,
		SessionID:           report.SessionID,
		Topic:               report.Topic,
		Provider:            report.Provider,
		IntroMessage:        report.IntroMessage,
		Entries:             NewEntryResponses(entries),
		QuestionCount:       report.QuestionCount,
		AverageScore:        report.AverageScore,
		FinalFeedback:       report.FinalFeedback,
		FinalScore:          report.FinalScore,
		FinalRecommendation: report.FinalRecommendation,
		FallbackUsed:        report.FallbackUsed,
		CreatedAt:           report.CreatedAt,
	}
}

// NewReportListResponse converts a page of reports.
func NewReportListResponse(reports []models.InterviewReport, pagination PaginationMeta) ReportListResponse {
	return ReportListResponse{
		Items:      lo.Map(reports, func(report models.InterviewReport, _ int) ReportResponse { return NewReportResponse(report) }),
		Pagination: pagination,
	}
}

// Socket command names accepted on the interview websocket.
const (
	SocketCommandBegin   = "begin"
	SocketCommandAnswer  = "answer"
	SocketCommandNext    = "next"
	SocketCommandSummary = "summary"
	SocketCommandReset   = "reset"
	SocketCommandState   = "state"
)

// SocketCommand is one client frame on the interview websocket.
type SocketCommand struct {
	Type   string  `json:"type" validate:"required,oneof=begin answer next summary reset state"`
	Answer *string `json:"answer,omitempty" validate:"omitempty,max=8000"`
}

// SocketReply is one server frame on the interview websocket.
type SocketReply struct {
	Type      string           `json:"type"`
	Session   *SessionResponse `json:"session,omitempty"`
	Message   string           `json:"message,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
}
