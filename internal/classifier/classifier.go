// Package classifier extracts progress and next-steps summaries from
// message text via an LLM completion call.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/models"
)

// Completer abstracts the LLM provider.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You are an expert at analyzing workplace communication messages to extract progress updates and next steps.

Your task is to:
1. Identify any progress or accomplishments mentioned in the message
2. Identify any next steps, plans, or future actions mentioned
3. Provide a confidence score (0-1) for your extraction

Return your response in the following JSON format:
{
    "progress": "extracted progress information or null if none found",
    "next_steps": "extracted next steps information or null if none found",
    "confidence": 0.85
}

Be concise and focus on the key information. If no clear progress or next steps are mentioned, return null for those fields.`

// Extraction is the structured result of one classification call.
// A failed call yields the zero value: both fields nil, confidence 0.
type Extraction struct {
	Progress   *string
	NextSteps  *string
	Confidence float64
}

// Classifier annotates messages with extracted progress and next steps.
type Classifier struct {
	llm Completer
	log *logger.Logger
}

// New creates a classifier backed by the given LLM client.
func New(llm Completer, log *logger.Logger) *Classifier {
	return &Classifier{llm: llm, log: log}
}

// Classify runs one extraction over the given text. It never fails the
// caller: API errors, empty replies, and malformed responses all collapse
// into the zero Extraction so one bad message cannot sink a batch.
func (c *Classifier) Classify(ctx context.Context, text string) Extraction {
	content, err := c.llm.Complete(ctx, systemPrompt, buildUserPrompt(text))
	if err != nil {
		c.log.Error().Err(err).Msg("classifier: completion request failed")
		return Extraction{}
	}

	if strings.TrimSpace(content) == "" {
		c.log.Error().Msg("classifier: completion returned no content")
		return Extraction{}
	}

	ex, err := parseExtraction(content)
	if err != nil {
		c.log.Error().Err(err).Msg("classifier: unparseable completion")
		c.log.Debug().Str("content", content).Msg("classifier: raw completion")
		return Extraction{}
	}

	return ex
}

// ClassifyAll annotates the messages in place, one at a time in order.
// Every message gets ProcessedAt and ConfidenceScore set, even on failure.
func (c *Classifier) ClassifyAll(ctx context.Context, msgs []models.Message) []models.Message {
	for i := range msgs {
		c.log.Info().
			Int("index", i+1).
			Int("total", len(msgs)).
			Str("username", msgs[i].Username).
			Msg("classifier: processing message")

		ex := c.Classify(ctx, msgs[i].Text)

		now := time.Now()
		conf := ex.Confidence
		msgs[i].Progress = ex.Progress
		msgs[i].NextSteps = ex.NextSteps
		msgs[i].ConfidenceScore = &conf
		msgs[i].ProcessedAt = &now
	}
	return msgs
}

func buildUserPrompt(text string) string {
	return fmt.Sprintf(`Please analyze the following message and extract any progress updates and next steps:

Message: "%s"

Please provide your response in the specified JSON format.`, text)
}

// parseExtraction parses the model reply as a JSON object with keys
// progress, next_steps, and confidence.
func parseExtraction(content string) (Extraction, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(content)), &raw); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction json: %w", err)
	}

	conf, err := confidenceField(raw)
	if err != nil {
		return Extraction{}, err
	}

	return Extraction{
		Progress:   textField(raw, "progress"),
		NextSteps:  textField(raw, "next_steps"),
		Confidence: conf,
	}, nil
}

// textField reads a string field, mapping JSON null, a missing key, and the
// literal string "null" all to nil.
func textField(raw map[string]any, key string) *string {
	s, ok := raw[key].(string)
	if !ok || s == "null" {
		return nil
	}
	return &s
}

// confidenceField coerces the confidence value to a float, defaulting to 0
// when the key is missing. A present but non-numeric value, including an
// explicit null, is an error.
func confidenceField(raw map[string]any) (float64, error) {
	val, ok := raw["confidence"]
	if !ok {
		return 0, nil
	}

	switch v := val.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric confidence %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected confidence type %T", v)
	}
}

// cleanJSON removes markdown code blocks if present.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
