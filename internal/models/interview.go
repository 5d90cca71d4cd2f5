package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Recommendation is the final categorical verdict of an interview.
type Recommendation string

// Recommendation values accepted from the summarizer.
const (
	RecommendationHire             Recommendation = "Hire"
	RecommendationNeedsImprovement Recommendation = "Needs Improvement"
	RecommendationReject           Recommendation = "Reject"
)

// Recommendations lists every accepted recommendation label.
var Recommendations = []Recommendation{
	RecommendationHire,
	RecommendationNeedsImprovement,
	RecommendationReject,
}

// ParseRecommendation matches a label case-insensitively, treating '_' and '-' as spaces.
func ParseRecommendation(value string) (Recommendation, bool) {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(value)
	normalized = strings.Join(strings.Fields(normalized), " ")
	for _, candidate := range Recommendations {
		if strings.EqualFold(normalized, string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// Phase identifies where a session sits in the interview walk.
type Phase string

// Interview phases.
const (
	PhaseIntro     Phase = "intro"
	PhaseAsking    Phase = "asking"
	PhaseRecording Phase = "recording"
	PhaseSummary   Phase = "summary"
	PhaseDone      Phase = "done"
)

// Score bounds.
const (
	MaxEntryScore = 5
	MaxFinalScore = 10
)

// Entry is one question cycle of the transcript.
type Entry struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer,omitempty"`
	Feedback *string `json:"feedback,omitempty"`
	Score    *int    `json:"score,omitempty"`

	// FeedbackFallback marks feedback substituted for unreadable model output.
	FeedbackFallback bool `json:"feedback_fallback,omitempty"`
}

// Answered reports whether the candidate has answered the entry.
func (e Entry) Answered() bool {
	return e.Answer != nil
}

// Evaluated reports whether feedback and score are present.
func (e Entry) Evaluated() bool {
	return e.Feedback != nil && e.Score != nil
}

// SessionState is the mutable record of one interview.
type SessionState struct {
	IntroMessage        *string         `json:"intro_message,omitempty"`
	Questions           []string        `json:"questions"`
	Entries             []Entry         `json:"entries"`
	FinalFeedback       *string         `json:"final_feedback,omitempty"`
	FinalScore          *int            `json:"final_score,omitempty"`
	FinalRecommendation *Recommendation `json:"final_recommendation,omitempty"`
	OutroMessage        *string         `json:"outro_message,omitempty"`
	SummaryFallback     bool            `json:"summary_fallback,omitempty"`
}

// FallbackUsed reports whether any feedback or the summary came from a fallback.
func (s *SessionState) FallbackUsed() bool {
	return s.SummaryFallback || lo.SomeBy(s.Entries, func(entry Entry) bool {
		return entry.FeedbackFallback
	})
}

// Introduced reports whether the intro step has populated the session.
func (s *SessionState) Introduced() bool {
	return s.IntroMessage != nil
}

// OpenEntry returns the entry awaiting an answer and its index, or nil and -1.
func (s *SessionState) OpenEntry() (*Entry, int) {
	if len(s.Entries) == 0 {
		return nil, -1
	}
	last := len(s.Entries) - 1
	if s.Entries[last].Answered() {
		return nil, -1
	}
	return &s.Entries[last], last
}

// AnsweredCount counts answered entries.
func (s *SessionState) AnsweredCount() int {
	return lo.CountBy(s.Entries, func(entry Entry) bool {
		return entry.Answered()
	})
}

// AllAnswered reports whether every question has been asked and answered.
func (s *SessionState) AllAnswered() bool {
	return len(s.Entries) == len(s.Questions) && s.AnsweredCount() == len(s.Questions)
}

// Summarized reports whether the final fields are set.
func (s *SessionState) Summarized() bool {
	return s.FinalFeedback != nil
}

// Phase derives the current phase from the counters.
func (s *SessionState) Phase() Phase {
	switch {
	case !s.Introduced():
		return PhaseIntro
	case s.Summarized():
		return PhaseDone
	}
	if entry, _ := s.OpenEntry(); entry != nil {
		return PhaseRecording
	}
	if len(s.Entries) < len(s.Questions) {
		return PhaseAsking
	}
	return PhaseSummary
}

// Clone returns a deep copy so snapshots can leave the session lock.
func (s *SessionState) Clone() SessionState {
	clone := SessionState{
		IntroMessage:    cloneString(s.IntroMessage),
		FinalFeedback:   cloneString(s.FinalFeedback),
		FinalScore:      cloneInt(s.FinalScore),
		OutroMessage:    cloneString(s.OutroMessage),
		Questions:       append([]string(nil), s.Questions...),
		SummaryFallback: s.SummaryFallback,
	}
	if s.FinalRecommendation != nil {
		recommendation := *s.FinalRecommendation
		clone.FinalRecommendation = &recommendation
	}
	if s.Entries != nil {
		clone.Entries = make([]Entry, len(s.Entries))
		for i, entry := range s.Entries {
			clone.Entries[i] = Entry{
				Question:         entry.Question,
				Answer:           cloneString(entry.Answer),
				Feedback:         cloneString(entry.Feedback),
				Score:            cloneInt(entry.Score),
				FeedbackFallback: entry.FeedbackFallback,
			}
		}
	}
	return clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

// InterviewSession binds a SessionState to its id and lifecycle timestamps.
type InterviewSession struct {
	ID        string       `json:"id"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
