// Package models defines the data types shared across the scraping pipeline.
package models

import "time"

// Message represents a normalized Slack message, optionally annotated
// with progress and next-steps summaries extracted by the classifier.
type Message struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	ChannelID string    `json:"channel_id"`
	ThreadTS  *string   `json:"thread_ts"`

	// extracted content, nil until classification runs
	Progress  *string `json:"progress"`
	NextSteps *string `json:"next_steps"`

	// classification metadata
	ProcessedAt     *time.Time `json:"processed_at"`
	ConfidenceScore *float64   `json:"confidence_score"`
}

// Processed reports whether classification extracted anything from the message.
// A message where the model found neither progress nor next steps counts as
// not processed, same as an outright classification failure.
func (m *Message) Processed() bool {
	return m.Progress != nil || m.NextSteps != nil
}

// BatchResult represents the outcome of processing one fetched set of messages.
// Results keeps fetch order. TotalMessages == ProcessedMessages + FailedMessages.
type BatchResult struct {
	TotalMessages     int       `json:"total_messages"`
	ProcessedMessages int       `json:"processed_messages"`
	FailedMessages    int       `json:"failed_messages"`
	Results           []Message `json:"results"`
}
