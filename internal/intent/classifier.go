// Package intent decides whether an utterance describes a new sales lead.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voice-leads-go/internal/llm"
)

// ErrService is returned when the language-understanding service is
// unreachable or answers garbage. The orchestrator fails open on it.
var ErrService = errors.New("classification service error")

// Classification is the advisory outcome. IsLead is true only for the
// create_lead intent; the other intents are reported but short-circuit
// the pipeline.
type Classification struct {
	IsLead     bool    `json:"is_lead"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Completer is the slice of the LLM client the classifier needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Classifier struct {
	llm Completer
}

func NewClassifier(c Completer) *Classifier {
	return &Classifier{llm: c}
}

const intentPrompt = `You are an AI assistant for a custom millwork company.
Analyze this voice transcription and classify the user's intent.

Transcription: "%s"

Classify as ONE of these intents:
- create_lead: User wants to log a new potential customer/lead
- update_lead: User wants to update an existing lead's information
- query_lead: User is asking about the status of an existing lead
- unknown: The transcription is not related to lead management

Respond in JSON format:
{
  "intent": "create_lead|update_lead|query_lead|unknown",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation"
}`

// Classify runs one classification call. It never errors for odd but
// parseable answers; only an unreachable or unintelligible service
// produces ErrService.
func (cl *Classifier) Classify(ctx context.Context, utterance string) (Classification, error) {
	out, err := cl.llm.Complete(ctx, fmt.Sprintf(intentPrompt, utterance))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrService, err)
	}

	doc := llm.ExtractJSON(out)
	if doc == "" {
		return Classification{}, fmt.Errorf("%w: no JSON in response", ErrService)
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return Classification{}, fmt.Errorf("%w: decode: %v", ErrService, err)
	}

	intent := strings.ToLower(strings.TrimSpace(parsed.Intent))
	switch intent {
	case "create_lead", "update_lead", "query_lead":
	default:
		intent = "unknown"
	}

	return Classification{
		IsLead:     intent == "create_lead",
		Intent:     intent,
		Confidence: parsed.Confidence,
		Reason:     parsed.Reasoning,
	}, nil
}
