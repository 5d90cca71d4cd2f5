package interview

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// DefaultTopic is the skill area the interview covers when none is configured.
const DefaultTopic = "Excel"

func interviewerSystemPrompt(topic string) string {
	return fmt.Sprintf("You are acting as a %s mock interviewer. Be concise and professional.", topic)
}

func introPrompt(topic string) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Generate a short, friendly introduction for a candidate in a mock %s interview.\n", topic))
	builder.WriteString("- Greet the candidate\n")
	builder.WriteString(fmt.Sprintf("- Explain that this is a mock %s interview\n", topic))
	builder.WriteString("- Mention there will be a few questions\n")
	builder.WriteString("- Encourage them to relax and do their best\n")
	builder.WriteString("Keep it within 4 sentences.")
	return builder.String()
}

func questionsPrompt(topic string, n int) string {
	return fmt.Sprintf("Generate %d unique interview questions that test different %s skills. "+
		"Return them as a plain numbered list, one question per line, without explanations.", n, topic)
}

func evaluationPrompt(question, answer string) string {
	builder := strings.Builder{}
	builder.WriteString("Question: ")
	builder.WriteString(question)
	builder.WriteString("\nCandidate Answer: ")
	builder.WriteString(answer)
	builder.WriteString("\n\n1. Give concise feedback (2-3 sentences).\n")
	builder.WriteString(fmt.Sprintf("2. Give a score from 0 to %d (0 = wrong, %d = excellent).\n", models.MaxEntryScore, models.MaxEntryScore))
	builder.WriteString(`Respond strictly in JSON format: {"feedback": "...", "score": int}`)
	return builder.String()
}

func summaryPrompt(transcript string) string {
	labels := make([]string, 0, len(models.Recommendations))
	for _, recommendation := range models.Recommendations {
		labels = append(labels, string(recommendation))
	}

	builder := strings.Builder{}
	builder.WriteString("Given this interview transcript:\n")
	builder.WriteString(transcript)
	builder.WriteString("\n\nProvide final_feedback, final_score, and final_recommendation.\n")
	builder.WriteString("Respond strictly in JSON with these keys:\n")
	builder.WriteString("- final_feedback: string, the final feedback summary\n")
	builder.WriteString(fmt.Sprintf("- final_score: integer, overall score 0-%d\n", models.MaxFinalScore))
	builder.WriteString(fmt.Sprintf("- final_recommendation: one of %s", strings.Join(labels, ", ")))
	return builder.String()
}

// BuildTranscript renders answered entries for the summary prompt.
func BuildTranscript(entries []models.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("Q: %s\nA: %s\nF: %s (Score %s)",
			entry.Question,
			valueOr(entry.Answer, ""),
			valueOr(entry.Feedback, ""),
			scoreText(entry.Score),
		))
	}
	return strings.Join(lines, "\n")
}

func valueOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func scoreText(score *int) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *score)
}
