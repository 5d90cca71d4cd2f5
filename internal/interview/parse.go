package interview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// Fallback texts used when model output cannot be parsed.
const (
	FallbackFeedback        = "Could not parse feedback, please review manually."
	FallbackSummaryFeedback = "Could not parse final summary, please review manually."
)

// FallbackSummaryRecommendation keeps a human in the loop when the summary is unreadable.
const FallbackSummaryRecommendation = models.RecommendationNeedsImprovement

// ErrEmptyOutput is reported when the model returned no usable text.
var ErrEmptyOutput = errors.New("model output is empty")

// ParseResult tags a parsed value with whether the fallback had to be used.
type ParseResult[T any] struct {
	Value    T
	Fallback bool
	Reason   error
}

// Parsed wraps a successfully parsed value.
func Parsed[T any](value T) ParseResult[T] {
	return ParseResult[T]{Value: value}
}

// FellBack wraps the default value substituted for unparsable output.
func FellBack[T any](value T, reason error) ParseResult[T] {
	return ParseResult[T]{Value: value, Fallback: true, Reason: reason}
}

const evaluationSchemaJSON = `{
	"type": "object",
	"required": ["feedback", "score"],
	"properties": {
		"feedback": {"type": "string"},
		"score": {"type": "integer"}
	}
}`

const summarySchemaJSON = `{
	"type": "object",
	"required": ["final_feedback", "final_score", "final_recommendation"],
	"properties": {
		"final_feedback": {"type": "string", "minLength": 1},
		"final_score": {"type": "integer"},
		"final_recommendation": {"enum": ["Hire", "Needs Improvement", "Reject"]}
	}
}`

// Scores are not bounded here; the controller clamps them so usable feedback is kept.
var (
	evaluationSchema = jsonschema.MustCompileString("evaluation.schema.json", evaluationSchemaJSON)
	summarySchema    = jsonschema.MustCompileString("summary.schema.json", summarySchemaJSON)
)

// ParseEvaluation reads {"feedback", "score"} from model output.
func ParseEvaluation(content string) ParseResult[Evaluation] {
	var payload struct {
		Feedback string  `json:"feedback"`
		Score    float64 `json:"score"`
	}

	if err := decodeStructured(content, evaluationSchema, []string{"score"}, nil, &payload); err != nil {
		return FellBack(Evaluation{Feedback: FallbackFeedback, Score: 0, Fallback: true}, err)
	}

	return Parsed(Evaluation{
		Feedback: strings.TrimSpace(payload.Feedback),
		Score:    int(payload.Score),
	})
}

// ParseSummary reads the three final fields from model output.
func ParseSummary(content string) ParseResult[Summary] {
	var payload struct {
		Feedback       string  `json:"final_feedback"`
		Score          float64 `json:"final_score"`
		Recommendation string  `json:"final_recommendation"`
	}

	normalizeRecommendation := func(document map[string]interface{}) {
		if label, ok := document["final_recommendation"].(string); ok {
			if recommendation, ok := models.ParseRecommendation(label); ok {
				document["final_recommendation"] = string(recommendation)
			}
		}
	}

	if err := decodeStructured(content, summarySchema, []string{"final_score"}, normalizeRecommendation, &payload); err != nil {
		return FellBack(fallbackSummary(), err)
	}

	return Parsed(Summary{
		Feedback:       strings.TrimSpace(payload.Feedback),
		Score:          int(payload.Score),
		Recommendation: models.Recommendation(payload.Recommendation),
	})
}

func fallbackSummary() Summary {
	return Summary{
		Feedback:       FallbackSummaryFeedback,
		Score:          0,
		Recommendation: FallbackSummaryRecommendation,
		Fallback:       true,
	}
}

// decodeStructured unwraps, validates and decodes a JSON object produced by the model.
// numericKeys are converted from integer strings ("4") before validation.
func decodeStructured(content string, schema *jsonschema.Schema, numericKeys []string, normalize func(map[string]interface{}), target interface{}) error {
	raw := unwrapJSON(content)
	if raw == "" {
		return ErrEmptyOutput
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var document map[string]interface{}
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	if document == nil {
		return fmt.Errorf("decode model json: expected an object")
	}

	for _, key := range numericKeys {
		if text, ok := document[key].(string); ok {
			if _, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
				document[key] = json.Number(strings.TrimSpace(text))
			}
		}
	}
	if normalize != nil {
		normalize(document)
	}

	if err := schema.Validate(document); err != nil {
		return fmt.Errorf("validate model json: %w", err)
	}

	normalized, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode model json: %w", err)
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// unwrapJSON strips markdown fences and surrounding prose from a JSON object.
func unwrapJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
			trimmed = trimmed[newline+1:]
		} else {
			trimmed = strings.TrimPrefix(trimmed, "```")
		}
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end < start {
		return trimmed
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
