package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// DefaultQuestionCount is how many questions an interview asks when not configured.
const DefaultQuestionCount = 3

// DefaultOutro closes a finished interview.
const DefaultOutro = "Thank you for taking part in this mock interview. Good luck with the real one!"

// ErrNoQuestions indicates the provider produced no usable questions. The session is left
// untouched so the intro can be retried.
var ErrNoQuestions = errors.New("no interview questions available")

// ErrStalled indicates the session state violates the walk's invariants.
var ErrStalled = errors.New("interview flow cannot advance")

// ControllerConfig tunes the flow controller.
type ControllerConfig struct {
	QuestionCount int
	Outro         string
}

// Controller walks a SessionState through intro, asking, recording and summary.
// It never locks: callers serialize access to one session.
type Controller struct {
	provider      QuestionProvider
	evaluator     Evaluator
	summarizer    Summarizer
	questionCount int
	outro         string
	logger        zerolog.Logger
}

// NewController builds a flow controller.
func NewController(provider QuestionProvider, evaluator Evaluator, summarizer Summarizer, cfg ControllerConfig, logger zerolog.Logger) *Controller {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	if cfg.Outro == "" {
		cfg.Outro = DefaultOutro
	}

	return &Controller{
		provider:      provider,
		evaluator:     evaluator,
		summarizer:    summarizer,
		questionCount: cfg.QuestionCount,
		outro:         cfg.Outro,
		logger:        logger.With().Str("component", "interview_controller").Logger(),
	}
}

// StepResult reports what a Step call changed.
type StepResult struct {
	Phase      models.Phase
	Introduced bool
	Asked      int
	Recorded   bool
	Summarized bool
}

// Intro populates the intro message and question list once.
func (c *Controller) Intro(ctx context.Context, state *models.SessionState) (bool, error) {
	if state.Introduced() {
		return false, nil
	}

	intro, err := c.provider.GenerateIntro(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(intro) == "" {
		intro = DefaultIntro
	}

	questions := state.Questions
	if len(questions) == 0 {
		questions, err = c.provider.GenerateQuestions(ctx, c.questionCount)
		if err != nil {
			return false, err
		}
	}
	if len(questions) == 0 {
		return false, ErrNoQuestions
	}

	state.IntroMessage = &intro
	state.Questions = questions
	state.Entries = make([]models.Entry, 0, len(questions))
	c.logger.Debug().Int("questions", len(questions)).Msg("interview introduced")
	return true, nil
}

// Ask appends the next question when every asked question has been answered.
func (c *Controller) Ask(state *models.SessionState) bool {
	if !state.Introduced() || len(state.Entries) >= len(state.Questions) {
		return false
	}
	if open, _ := state.OpenEntry(); open != nil {
		return false
	}

	state.Entries = append(state.Entries, models.Entry{Question: state.Questions[len(state.Entries)]})
	return true
}

// Record stores the answer to the open entry together with its evaluation. A nil answer
// or a missing open entry is a no-op. When evaluation cannot reach the model the entry
// is left unanswered.
func (c *Controller) Record(ctx context.Context, state *models.SessionState, answer *string) (bool, error) {
	if answer == nil {
		return false, nil
	}
	entry, index := state.OpenEntry()
	if entry == nil {
		return false, nil
	}

	evaluation, err := c.evaluator.Evaluate(ctx, entry.Question, *answer)
	if err != nil {
		return false, err
	}

	value := *answer
	feedback := evaluation.Feedback
	score := clamp(evaluation.Score, 0, models.MaxEntryScore)
	entry.Answer = &value
	entry.Feedback = &feedback
	entry.Score = &score
	entry.FeedbackFallback = evaluation.Fallback

	c.logger.Debug().Int("entry", index).Int("score", score).Bool("fallback", evaluation.Fallback).Msg("answer recorded")
	return true, nil
}

// Summarize fills the final fields once every question is answered. It never re-runs.
func (c *Controller) Summarize(ctx context.Context, state *models.SessionState) (bool, error) {
	if state.Summarized() || !state.Introduced() || !state.AllAnswered() {
		return false, nil
	}

	summary, err := c.summarizer.Summarize(ctx, state.Entries)
	if err != nil {
		return false, err
	}

	feedback := summary.Feedback
	score := clamp(summary.Score, 0, models.MaxFinalScore)
	recommendation, ok := models.ParseRecommendation(string(summary.Recommendation))
	if !ok {
		recommendation = FallbackSummaryRecommendation
	}
	outro := c.outro

	state.FinalFeedback = &feedback
	state.FinalScore = &score
	state.FinalRecommendation = &recommendation
	state.OutroMessage = &outro
	state.SummaryFallback = summary.Fallback
	return true, nil
}

// Step advances the session until it needs external input or is done. answer is
// consumed only if the session is already waiting for one when Step is called.
func (c *Controller) Step(ctx context.Context, state *models.SessionState, answer *string) (StepResult, error) {
	result := StepResult{}
	pending := answer
	if state.Phase() != models.PhaseRecording {
		pending = nil
	}

	for {
		phase := state.Phase()
		result.Phase = phase

		var (
			progressed bool
			err        error
		)

		switch phase {
		case models.PhaseIntro:
			progressed, err = c.Intro(ctx, state)
			result.Introduced = progressed
		case models.PhaseAsking:
			progressed = c.Ask(state)
			if progressed {
				result.Asked++
			}
		case models.PhaseRecording:
			if pending == nil {
				return result, nil
			}
			progressed, err = c.Record(ctx, state, pending)
			pending = nil
			result.Recorded = progressed
		case models.PhaseSummary:
			progressed, err = c.Summarize(ctx, state)
			result.Summarized = progressed
		case models.PhaseDone:
			return result, nil
		}

		if err != nil {
			return result, err
		}
		if !progressed {
			return result, fmt.Errorf("%w: phase %s", ErrStalled, phase)
		}
	}
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
