package interview

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

// QuestionProvider produces the introduction and the question list of an interview.
type QuestionProvider interface {
	GenerateIntro(ctx context.Context) (string, error)
	GenerateQuestions(ctx context.Context, n int) ([]string, error)
}

// DefaultIntro greets the candidate when no generated intro is available.
const DefaultIntro = "Hello and welcome! This is a mock Excel interview with a few short questions. " +
	"Take your time, relax, and do your best."

// DefaultQuestions is the fixed question table.
var DefaultQuestions = []string{
	"What is the difference between VLOOKUP and INDEX-MATCH?",
	"How would you use a Pivot Table to summarize sales data by region?",
	"What are absolute vs relative references in Excel formulas?",
}

// StaticProvider serves a fixed intro and question table.
type StaticProvider struct {
	Intro     string
	Questions []string
}

// NewStaticProvider returns a provider backed by the default table.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{Intro: DefaultIntro, Questions: DefaultQuestions}
}

// GenerateIntro returns the fixed intro.
func (p *StaticProvider) GenerateIntro(context.Context) (string, error) {
	if strings.TrimSpace(p.Intro) == "" {
		return DefaultIntro, nil
	}
	return p.Intro, nil
}

// GenerateQuestions returns at most n questions from the table.
func (p *StaticProvider) GenerateQuestions(_ context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	questions := lo.Uniq(p.Questions)
	if len(questions) > n {
		questions = questions[:n]
	}
	return append([]string(nil), questions...), nil
}

// LLMProvider asks the text-generation model for the intro and questions.
type LLMProvider struct {
	generator ai.Generator
	topic     string
	logger    zerolog.Logger
}

// NewLLMProvider constructs a generator-backed provider.
func NewLLMProvider(generator ai.Generator, topic string, logger zerolog.Logger) *LLMProvider {
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	return &LLMProvider{
		generator: generator,
		topic:     topic,
		logger:    logger.With().Str("component", "question_provider").Logger(),
	}
}

// GenerateIntro produces a short greeting.
func (p *LLMProvider) GenerateIntro(ctx context.Context) (string, error) {
	completion, err := p.generator.Generate(ctx, ai.Prompt{
		System: interviewerSystemPrompt(p.topic),
		User:   introPrompt(p.topic),
	})
	if err != nil {
		return "", fmt.Errorf("generate intro: %w", err)
	}

	intro := strings.TrimSpace(completion.Text)
	if intro == "" {
		p.logger.Warn().Msg("empty intro returned; using default intro")
		return DefaultIntro, nil
	}
	return intro, nil
}

// GenerateQuestions returns up to n questions parsed from the model output.
func (p *LLMProvider) GenerateQuestions(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	completion, err := p.generator.Generate(ctx, ai.Prompt{
		System: interviewerSystemPrompt(p.topic),
		User:   questionsPrompt(p.topic, n),
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := ParseQuestions(completion.Text, n)
	if len(questions) < n {
		p.logger.Warn().Int("requested", n).Int("parsed", len(questions)).Msg("fewer questions than requested")
	}
	return questions, nil
}

var (
	listNumbering = regexp.MustCompile(`^\(?\d+\s*[.):\-]*\s*`)
	listMarker    = regexp.MustCompile(`^(\(?\d+\s*[.):\-]|[-*•])`)
)

// ParseQuestions splits a numbered list into at most n distinct questions. Lines ending
// in a colon are treated as preamble, and when the output contains list items only those
// are kept.
func ParseQuestions(raw string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	type candidate struct {
		text   string
		listed bool
	}

	candidates := make([]candidate, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		question := strings.Trim(trimmed, " \t\r.-*•")
		question = strings.TrimSpace(listNumbering.ReplaceAllString(question, ""))
		if question == "" || strings.HasSuffix(question, ":") {
			continue
		}
		candidates = append(candidates, candidate{text: question, listed: listMarker.MatchString(trimmed)})
	}

	if lo.SomeBy(candidates, func(c candidate) bool { return c.listed }) {
		candidates = lo.Filter(candidates, func(c candidate, _ int) bool { return c.listed })
	}
	questions := lo.Map(candidates, func(c candidate, _ int) string { return c.text })

	questions = lo.Uniq(questions)
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions
}
