package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noah-isme/gema-interview-api/internal/dto"
	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

// Console commands typed instead of an answer.
const (
	CommandQuit  = "/quit"
	CommandReset = "/reset"
	CommandRetry = "/retry"
)

// ErrQuit is returned when the candidate leaves before the interview ends.
var ErrQuit = errors.New("interview abandoned")

// Runner drives one interview session over a line-based terminal.
type Runner struct {
	service service.InterviewService
	in      *bufio.Scanner
	out     io.Writer
	logger  zerolog.Logger
}

// NewRunner creates a console runner reading answers from in and writing to out.
func NewRunner(svc service.InterviewService, in io.Reader, out io.Writer, logger zerolog.Logger) *Runner {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	return &Runner{
		service: svc,
		in:      scanner,
		out:     out,
		logger:  logger.With().Str("component", "console").Logger(),
	}
}

// Run plays a full interview and returns the final summary.
func (r *Runner) Run(ctx context.Context) (dto.SummaryResponse, error) {
	session, err := r.service.Start(ctx)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	r.logger.Info().Str("session_id", session.ID).Msg("console interview started")

	session, err = r.begin(ctx, session.ID)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	r.printIntro(session)

	for session.Phase != string(models.PhaseDone) {
		if session.CurrentQuestion == nil {
			session, err = r.retry(ctx, session.ID, func() (dto.SessionResponse, error) {
				return r.service.Next(ctx, session.ID)
			})
			if err != nil {
				return dto.SummaryResponse{}, err
			}
			continue
		}

		r.printf("\nQuestion %d of %d: %s\n> ", session.Progress.Asked, session.Progress.Total, *session.CurrentQuestion)
		line, ok := r.readLine()
		if !ok {
			return dto.SummaryResponse{}, ErrQuit
		}

		switch strings.TrimSpace(line) {
		case CommandQuit:
			return dto.SummaryResponse{}, ErrQuit
		case CommandReset:
			if _, err := r.service.Reset(ctx, session.ID); err != nil {
				return dto.SummaryResponse{}, err
			}
			r.printf("Starting over.\n")
			if session, err = r.begin(ctx, session.ID); err != nil {
				return dto.SummaryResponse{}, err
			}
			r.printIntro(session)
			continue
		}

		answer := line
		result, err := r.service.Answer(ctx, session.ID, dto.AnswerRequest{Answer: &answer})
		if err != nil {
			if !retryable(err) {
				return dto.SummaryResponse{}, err
			}
			r.printf("%s.\n", err.Error())
			// The answer may have been recorded before a later step failed.
			if session, err = r.service.Get(ctx, session.ID); err != nil {
				return dto.SummaryResponse{}, err
			}
			continue
		}

		session = result.Session
		if result.Recorded != nil {
			r.printEntry(*result.Recorded)
		}
	}

	summary, err := r.service.Summary(ctx, session.ID)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	r.printHistory(session)
	r.printSummary(summary, session)
	return summary, nil
}

func (r *Runner) begin(ctx context.Context, id string) (dto.SessionResponse, error) {
	return r.retry(ctx, id, func() (dto.SessionResponse, error) {
		return r.service.Begin(ctx, id)
	})
}

// retry repeats step while it fails with a retryable error and the candidate asks for it.
func (r *Runner) retry(ctx context.Context, id string, step func() (dto.SessionResponse, error)) (dto.SessionResponse, error) {
	for {
		session, err := step()
		if err == nil || !retryable(err) {
			return session, err
		}
		r.logger.Warn().Err(err).Str("session_id", id).Msg("interview step failed")
		r.printf("%s. Type %s to try again or %s to leave.\n> ", err.Error(), CommandRetry, CommandQuit)

		line, ok := r.readLine()
		if !ok || strings.TrimSpace(line) == CommandQuit {
			return dto.SessionResponse{}, ErrQuit
		}
		if err := ctx.Err(); err != nil {
			return dto.SessionResponse{}, err
		}
	}
}

func (r *Runner) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

func (r *Runner) printIntro(session dto.SessionResponse) {
	r.printf("%s\n", lo.FromPtr(session.IntroMessage))
	r.printf("(%d questions. Type %s to start over or %s to leave.)\n", session.Progress.Total, CommandReset, CommandQuit)
}

func (r *Runner) printEntry(entry dto.EntryResponse) {
	r.printf("Feedback: %s\n", lo.FromPtr(entry.Feedback))
	if entry.Score != nil {
		r.printf("Score: %d/%d\n", *entry.Score, models.MaxEntryScore)
	}
}

func (r *Runner) printHistory(session dto.SessionResponse) {
	r.printf("\n=== Interview history ===\n")
	for _, entry := range session.Entries {
		r.printf("%d. %s\n   Answer: %s\n   Feedback: %s\n", entry.Index+1, entry.Question, lo.FromPtr(entry.Answer), lo.FromPtr(entry.Feedback))
		if entry.Score != nil {
			r.printf("   Score: %d/%d\n", *entry.Score, models.MaxEntryScore)
		}
	}
}

func (r *Runner) printSummary(summary dto.SummaryResponse, session dto.SessionResponse) {
	r.printf("\n=== Final evaluation ===\n%s\nScore: %d/%d\nRecommendation: %s\n", summary.Feedback, summary.Score, summary.MaxScore, summary.Recommendation)
	if outro := lo.FromPtr(session.OutroMessage); outro != "" {
		r.printf("\n%s\n", outro)
	}
}

func (r *Runner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func retryable(err error) bool {
	return errors.Is(err, service.ErrGenerationUnavailable) || errors.Is(err, service.ErrNoQuestions)
}
