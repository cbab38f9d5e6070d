package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/models"
)

// mockCompleter implements Completer for testing.
type mockCompleter struct {
	calls        int
	completeFunc func(ctx context.Context, system, user string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	if m.completeFunc != nil {
		return m.completeFunc(ctx, system, user)
	}
	return "{}", nil
}

func TestClassify_Success(t *testing.T) {
	mock := &mockCompleter{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			if !strings.Contains(user, "finished the migration") {
				t.Errorf("user prompt missing message text: %s", user)
			}
			return `{"progress": "finished the migration", "next_steps": "deploy to staging", "confidence": 0.9}`, nil
		},
	}
	c := New(mock, logger.Nop())

	ex := c.Classify(context.Background(), "I finished the migration. Next I deploy to staging.")

	require.NotNil(t, ex.Progress)
	require.NotNil(t, ex.NextSteps)
	assert.Equal(t, "finished the migration", *ex.Progress)
	assert.Equal(t, "deploy to staging", *ex.NextSteps)
	assert.Equal(t, 0.9, ex.Confidence)
}

func TestClassify_SampleMessageShape(t *testing.T) {
	// the canonical smoke-test message used by test-connections
	mock := &mockCompleter{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{"progress": "completed the project setup", "next_steps": "implement the API endpoints", "confidence": 0.85}`, nil
		},
	}
	c := New(mock, logger.Nop())

	ex := c.Classify(context.Background(), "I completed the project setup yesterday. Next, I need to implement the API endpoints.")

	require.NotNil(t, ex.Progress)
	require.NotNil(t, ex.NextSteps)
	assert.NotEmpty(t, *ex.Progress)
	assert.NotEmpty(t, *ex.NextSteps)
	assert.GreaterOrEqual(t, ex.Confidence, 0.0)
	assert.LessOrEqual(t, ex.Confidence, 1.0)
}

func TestClassify_FailureCases(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, system, user string) (string, error)
	}{
		{
			name: "api error",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return "", errors.New("rate limited")
			},
		},
		{
			name: "empty content",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return "   ", nil
			},
		},
		{
			name: "malformed json",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return "sorry, I cannot help with that", nil
			},
		},
		{
			name: "non-numeric confidence",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return `{"progress": "p", "next_steps": "n", "confidence": "high"}`, nil
			},
		},
		{
			name: "confidence wrong type",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return `{"progress": "p", "next_steps": "n", "confidence": [1]}`, nil
			},
		},
		{
			name: "explicit null confidence",
			fn: func(ctx context.Context, system, user string) (string, error) {
				return `{"progress": "p", "next_steps": "n", "confidence": null}`, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&mockCompleter{completeFunc: tt.fn}, logger.Nop())

			ex := c.Classify(context.Background(), "some text")

			assert.Nil(t, ex.Progress)
			assert.Nil(t, ex.NextSteps)
			assert.Zero(t, ex.Confidence)
		})
	}
}

func TestClassify_NullHandling(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"json null", `{"progress": null, "next_steps": null, "confidence": 0.7}`},
		{"literal null string", `{"progress": "null", "next_steps": "null", "confidence": 0.7}`},
		{"missing keys", `{"confidence": 0.7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCompleter{
				completeFunc: func(ctx context.Context, system, user string) (string, error) {
					return tt.reply, nil
				},
			}
			c := New(mock, logger.Nop())

			ex := c.Classify(context.Background(), "nothing to report")

			assert.Nil(t, ex.Progress)
			assert.Nil(t, ex.NextSteps)
			assert.Equal(t, 0.7, ex.Confidence)
		})
	}
}

func TestClassify_MissingConfidenceDefaultsToZero(t *testing.T) {
	mock := &mockCompleter{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{"progress": "shipped it", "next_steps": "monitor"}`, nil
		},
	}
	c := New(mock, logger.Nop())

	ex := c.Classify(context.Background(), "shipped it, monitoring next")

	require.NotNil(t, ex.Progress)
	require.NotNil(t, ex.NextSteps)
	assert.Zero(t, ex.Confidence)
}

func TestClassify_MarkdownFencedReply(t *testing.T) {
	mock := &mockCompleter{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			return "```json\n{\"progress\": \"done\", \"next_steps\": \"next\", \"confidence\": 0.5}\n```", nil
		},
	}
	c := New(mock, logger.Nop())

	ex := c.Classify(context.Background(), "done, next up")

	require.NotNil(t, ex.Progress)
	assert.Equal(t, "done", *ex.Progress)
	assert.Equal(t, 0.5, ex.Confidence)
}

func TestClassifyAll_AnnotatesEveryMessage(t *testing.T) {
	mock := &mockCompleter{
		completeFunc: func(ctx context.Context, system, user string) (string, error) {
			if strings.Contains(user, "broken") {
				return "", errors.New("boom")
			}
			return `{"progress": "ok", "next_steps": null, "confidence": 0.6}`, nil
		},
	}
	c := New(mock, logger.Nop())

	msgs := []models.Message{
		{UserID: "U1", Username: "alice", Text: "made progress"},
		{UserID: "U2", Username: "bob", Text: "broken message"},
	}

	annotated := c.ClassifyAll(context.Background(), msgs)

	require.Len(t, annotated, 2)
	assert.Equal(t, 2, mock.calls)

	// success: progress set, failure: everything cleared
	require.NotNil(t, annotated[0].Progress)
	assert.Equal(t, "ok", *annotated[0].Progress)
	assert.Nil(t, annotated[1].Progress)
	assert.Nil(t, annotated[1].NextSteps)

	// metadata is set on success and failure alike
	for i := range annotated {
		require.NotNil(t, annotated[i].ProcessedAt, "message %d missing ProcessedAt", i)
		require.NotNil(t, annotated[i].ConfidenceScore, "message %d missing ConfidenceScore", i)
	}
	assert.Equal(t, 0.6, *annotated[0].ConfidenceScore)
	assert.Zero(t, *annotated[1].ConfidenceScore)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSON(tt.in); got != tt.want {
				t.Errorf("cleanJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
