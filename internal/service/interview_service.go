package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/interview"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/observability"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

var (
	// ErrSessionNotFound indicates the session id is unknown or expired.
	ErrSessionNotFound = repository.ErrSessionNotFound
	// ErrGenerationUnavailable indicates the text-generation model could not be reached.
	// The session is unchanged and the request may be retried.
	ErrGenerationUnavailable = errors.New("text generation unavailable, please retry")
	// ErrNoQuestions indicates the question provider produced nothing usable.
	ErrNoQuestions = interview.ErrNoQuestions
	// ErrNotAwaitingAnswer indicates an answer was sent while no question is open.
	ErrNotAwaitingAnswer = errors.New("interview is not waiting for an answer")
	// ErrInterviewIncomplete indicates a summary was requested before every question was answered.
	ErrInterviewIncomplete = errors.New("interview has unanswered questions")
)

// InterviewService drives mock interviews for API and socket clients.
type InterviewService interface {
	Start(ctx context.Context) (dto.SessionResponse, error)
	Get(ctx context.Context, id string) (dto.SessionResponse, error)
	Begin(ctx context.Context, id string) (dto.SessionResponse, error)
	Answer(ctx context.Context, id string, req dto.AnswerRequest) (dto.AnswerResponse, error)
	Next(ctx context.Context, id string) (dto.SessionResponse, error)
	Summary(ctx context.Context, id string) (dto.SummaryResponse, error)
	Reset(ctx context.Context, id string) (dto.SessionResponse, error)
	Watch(id string) (<-chan InterviewEvent, func())
}

// InterviewServiceConfig labels archived reports.
type InterviewServiceConfig struct {
	Topic    string
	Provider string
}

type interviewService struct {
	sessions   repository.SessionRepository
	reports    repository.ReportRepository
	controller *interview.Controller
	events     InterviewEventPublisher
	validator  *validator.Validate
	cfg        InterviewServiceConfig
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewInterviewService constructs the interview workflow. reports and events may be nil.
func NewInterviewService(
	sessions repository.SessionRepository,
	reports repository.ReportRepository,
	controller *interview.Controller,
	events InterviewEventPublisher,
	validate *validator.Validate,
	cfg InterviewServiceConfig,
	logger zerolog.Logger,
) InterviewService {
	if cfg.Topic == "" {
		cfg.Topic = interview.DefaultTopic
	}
	if validate == nil {
		validate = validator.New()
	}

	return &interviewService{
		sessions:   sessions,
		reports:    reports,
		controller: controller,
		events:     events,
		validator:  validate,
		cfg:        cfg,
		logger:     logger.With().Str("component", "interview_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-interview-api/internal/service/interview"),
	}
}

func (s *interviewService) Start(ctx context.Context) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview.start")
	defer span.End()

	session, err := s.sessions.Create(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	span.SetAttributes(attribute.String("interview.session_id", session.ID))
	observability.InterviewsStarted().Inc()
	s.logger.Info().Str("session_id", session.ID).Msg("interview session created")

	return dto.NewSessionResponse(session), nil
}

func (s *interviewService) Get(ctx context.Context, id string) (dto.SessionResponse, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	return dto.NewSessionResponse(session), nil
}

// Begin runs the intro and shows the first question.
func (s *interviewService) Begin(ctx context.Context, id string) (dto.SessionResponse, error) {
	session, _, err := s.advance(ctx, id, "begin", nil)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	return dto.NewSessionResponse(session), nil
}

// Next resumes automatic steps, typically after a retryable generation failure.
func (s *interviewService) Next(ctx context.Context, id string) (dto.SessionResponse, error) {
	session, _, err := s.advance(ctx, id, "next", nil)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	return dto.NewSessionResponse(session), nil
}

func (s *interviewService) Answer(ctx context.Context, id string, req dto.AnswerRequest) (dto.AnswerResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnswerResponse{}, err
	}

	answer := normalizeAnswer(*req.Answer)
	session, recorded, err := s.advance(ctx, id, "answer", &answer)
	if err != nil {
		return dto.AnswerResponse{}, err
	}

	response := dto.AnswerResponse{Session: dto.NewSessionResponse(session)}
	if recorded >= 0 && recorded < len(response.Session.Entries) {
		entry := response.Session.Entries[recorded]
		response.Recorded = &entry
	}
	return response, nil
}

func (s *interviewService) Summary(ctx context.Context, id string) (dto.SummaryResponse, error) {
	current, err := s.sessions.Get(ctx, id)
	if err != nil {
		return dto.SummaryResponse{}, err
	}

	switch current.State.Phase() {
	case models.PhaseDone:
	case models.PhaseSummary:
		current, _, err = s.advance(ctx, id, "summary", nil)
		if err != nil {
			return dto.SummaryResponse{}, err
		}
	default:
		return dto.SummaryResponse{}, ErrInterviewIncomplete
	}

	summary := dto.NewSummaryResponse(current.State)
	if summary == nil {
		return dto.SummaryResponse{}, ErrInterviewIncomplete
	}
	return *summary, nil
}

func (s *interviewService) Reset(ctx context.Context, id string) (dto.SessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "interview.reset", trace.WithAttributes(attribute.String("interview.session_id", id)))
	defer span.End()

	session, err := s.sessions.Reset(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.SessionResponse{}, err
	}

	observability.InterviewsStarted().Inc()
	s.logger.Info().Str("session_id", id).Msg("interview session reset")

	response := dto.NewSessionResponse(session)
	s.emit(ctx, InterviewEvent{Type: EventSessionUpdated, SessionID: id, Session: &response})
	return response, nil
}

func (s *interviewService) Watch(id string) (<-chan InterviewEvent, func()) {
	if s.events == nil {
		ch := make(chan InterviewEvent)
		return ch, func() {}
	}
	return s.events.Subscribe(id)
}

// advance runs one controller step under the session lock. It returns the index of the
// entry recorded during the step, or -1.
func (s *interviewService) advance(ctx context.Context, id, operation string, answer *string) (models.InterviewSession, int, error) {
	ctx, span := s.tracer.Start(ctx, "interview."+operation, trace.WithAttributes(
		attribute.String("interview.session_id", id),
	))
	defer span.End()

	logger := s.logger.With().Str("session_id", id).Str("operation", operation).Logger()

	var (
		result   interview.StepResult
		recorded = -1
	)

	session, err := s.sessions.Update(ctx, id, func(state *models.SessionState) error {
		var input *string
		if answer != nil {
			if state.Phase() != models.PhaseRecording {
				return ErrNotAwaitingAnswer
			}
			_, recorded = state.OpenEntry()
			input = answer
		}

		var stepErr error
		result, stepErr = s.controller.Step(ctx, state, input)
		if !result.Recorded {
			recorded = -1
		}
		return stepErr
	})

	span.SetAttributes(attribute.String("interview.phase", string(result.Phase)))

	if result.Recorded {
		observability.AnswersRecorded().Inc()
	}
	if result.Introduced || result.Asked > 0 || result.Recorded || result.Summarized {
		response := dto.NewSessionResponse(session)
		s.emit(ctx, InterviewEvent{Type: EventSessionUpdated, SessionID: id, Session: &response})
	}
	if result.Summarized {
		s.complete(ctx, session)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
		return session, recorded, s.translate(logger, operation, err)
	}

	span.SetStatus(codes.Ok, "advanced")
	return session, recorded, nil
}

func (s *interviewService) translate(logger zerolog.Logger, operation string, err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNotAwaitingAnswer):
		return err
	case errors.Is(err, ai.ErrGeneration):
		observability.GenerationUnavailable().WithLabelValues(operation).Inc()
		logger.Warn().Err(err).Msg("text generation failed; session left unchanged")
		return ErrGenerationUnavailable
	case errors.Is(err, interview.ErrNoQuestions):
		logger.Warn().Msg("question provider returned no questions")
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		logger.Error().Err(err).Msg("interview step failed")
		return err
	}
}

// complete archives a finished interview and announces it. Failures are logged only.
func (s *interviewService) complete(ctx context.Context, session models.InterviewSession) {
	ctx = context.WithoutCancel(ctx)
	state := session.State
	summary := dto.NewSummaryResponse(state)
	if summary == nil {
		return
	}

	observability.InterviewsCompleted().WithLabelValues(summary.Recommendation).Inc()
	s.logger.Info().
		Str("session_id", session.ID).
		Int("final_score", summary.Score).
		Str("recommendation", summary.Recommendation).
		Msg("interview completed")

	if s.reports != nil {
		report, err := s.buildReport(session)
		if err == nil {
			err = s.reports.Create(ctx, &report)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to archive interview report")
		}
	}

	s.emit(ctx, InterviewEvent{Type: EventInterviewCompleted, SessionID: session.ID, Summary: summary})
}

func (s *interviewService) buildReport(session models.InterviewSession) (models.InterviewReport, error) {
	state := session.State
	transcript, err := json.Marshal(state.Entries)
	if err != nil {
		return models.InterviewReport{}, err
	}

	scores := lo.FilterMap(state.Entries, func(entry models.Entry, _ int) (int, bool) {
		if entry.Score == nil {
			return 0, false
		}
		return *entry.Score, true
	})
	average := 0.0
	if len(scores) > 0 {
		average = float64(lo.Sum(scores)) / float64(len(scores))
	}

	return models.InterviewReport{
		SessionID:           session.ID,
		Topic:               s.cfg.Topic,
		Provider:            s.cfg.Provider,
		IntroMessage:        lo.FromPtr(state.IntroMessage),
		Transcript:          transcript,
		QuestionCount:       len(state.Questions),
		AverageScore:        average,
		FinalFeedback:       *state.FinalFeedback,
		FinalScore:          lo.FromPtr(state.FinalScore),
		FinalRecommendation: string(lo.FromPtr(state.FinalRecommendation)),
		FallbackUsed:        state.FallbackUsed(),
	}, nil
}

func (s *interviewService) emit(ctx context.Context, event InterviewEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("session_id", event.SessionID).Str("event", event.Type).Msg("failed to publish interview event")
	}
}

// normalizeAnswer keeps the answer verbatim apart from surrounding whitespace. Answers
// are plain text and routinely contain markup-like formulas such as =IF(A1<B1,...).
func normalizeAnswer(answer string) string {
	return strings.TrimSpace(answer)
}
