package interview

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/gema-interview-api/internal/models"
	"github.com/noah-isme/gema-interview-api/pkg/ai"
)

type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []ai.Prompt
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt ai.Prompt) (ai.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return ai.Completion{}, g.err
	}
	if len(g.responses) == 0 {
		return ai.Completion{}, errors.New("no scripted response left")
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	return ai.Completion{Text: next, Model: "scripted"}, nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type stubEvaluator struct {
	result Evaluation
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(context.Context, string, string) (Evaluation, error) {
	s.calls++
	if s.err != nil {
		return Evaluation{}, s.err
	}
	return s.result, nil
}

type stubSummarizer struct {
	result Summary
	err    error
	calls  int
}

func (s *stubSummarizer) Summarize(context.Context, []models.Entry) (Summary, error) {
	s.calls++
	if s.err != nil {
		return Summary{}, s.err
	}
	return s.result, nil
}

type stubProvider struct {
	intro     string
	questions []string
	err       error
}

func (p stubProvider) GenerateIntro(context.Context) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.intro, nil
}

func (p stubProvider) GenerateQuestions(_ context.Context, n int) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.questions) > n {
		return p.questions[:n], nil
	}
	return p.questions, nil
}

func strPtr(value string) *string {
	return &value
}
