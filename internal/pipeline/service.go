// Package pipeline orchestrates the fetch, classify, aggregate, write sequence.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yaboibean/SMARTscraper/internal/config"
	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/models"
)

// ErrSlackUnreachable indicates the Slack connectivity check failed before
// any messages were fetched.
var ErrSlackUnreachable = errors.New("failed to connect to slack api")

// Fetcher defines the message source operations.
type Fetcher interface {
	ListChannelMessages(ctx context.Context, limit int) ([]models.Message, error)
	ListUserMessages(ctx context.Context, userID string, limit int) ([]models.Message, error)
	TestConnection(ctx context.Context) bool
}

// Classifier annotates fetched messages.
type Classifier interface {
	ClassifyAll(ctx context.Context, msgs []models.Message) []models.Message
}

// Writer persists and presents batch results.
type Writer interface {
	Save(result *models.BatchResult, format string) (string, error)
	PrintSummary(result *models.BatchResult)
	PrintResults(result *models.BatchResult, limit int)
}

// previewLimit bounds the per-message console preview after a run.
const previewLimit = 5

// Service wires the fetcher, classifier, and writer into one pipeline.
type Service struct {
	fetcher    Fetcher
	classifier Classifier
	writer     Writer
	settings   *config.Settings
	log        *logger.Logger
}

// NewService creates the pipeline service.
func NewService(fetcher Fetcher, classifier Classifier, writer Writer, settings *config.Settings, log *logger.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		classifier: classifier,
		writer:     writer,
		settings:   settings,
		log:        log,
	}
}

// RunOptions controls one full pipeline run.
type RunOptions struct {
	UserID      string // filter to one author when set
	Limit       int    // max messages, 0 = configured default
	Format      string // output format, "" = configured default
	ShowResults bool   // print a bounded per-message preview
}

// ScrapeAndProcess fetches messages, classifies them sequentially, and
// aggregates the outcome. A zero-message fetch short-circuits to an empty
// result without touching the classifier.
func (s *Service) ScrapeAndProcess(ctx context.Context, userID string, limit int) (*models.BatchResult, error) {
	log := s.log.With().Str("run_id", uuid.NewString()).Logger()
	log.Info().Msg("pipeline: starting scrape and process")

	if !s.fetcher.TestConnection(ctx) {
		return nil, ErrSlackUnreachable
	}

	var (
		msgs []models.Message
		err  error
	)
	if userID != "" {
		msgs, err = s.fetcher.ListUserMessages(ctx, userID, limit)
	} else {
		msgs, err = s.fetcher.ListChannelMessages(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		log.Warn().Msg("pipeline: no messages found to process")
		return &models.BatchResult{Results: []models.Message{}}, nil
	}

	log.Info().Int("count", len(msgs)).Msg("pipeline: classifying messages")
	msgs = s.classifier.ClassifyAll(ctx, msgs)

	result := aggregate(msgs)
	log.Info().
		Int("total", result.TotalMessages).
		Int("processed", result.ProcessedMessages).
		Int("failed", result.FailedMessages).
		Msg("pipeline: processing complete")
	return result, nil
}

// Run executes the full pipeline and returns the output file path.
func (s *Service) Run(ctx context.Context, opts RunOptions) (string, error) {
	result, err := s.ScrapeAndProcess(ctx, opts.UserID, opts.Limit)
	if err != nil {
		return "", err
	}

	format := opts.Format
	if format == "" {
		format = s.settings.OutputFormat
	}

	path, err := s.writer.Save(result, format)
	if err != nil {
		return "", err
	}

	s.writer.PrintSummary(result)
	if opts.ShowResults {
		s.writer.PrintResults(result, previewLimit)
	}

	return path, nil
}

// UserActivity describes one author's presence in the channel.
type UserActivity struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	MessageCount int    `json:"message_count"`
}

// ListUsers tallies message counts per author, in first-seen fetch order.
// A limit <= 0 scans the default channel history window.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]UserActivity, error) {
	msgs, err := s.fetcher.ListChannelMessages(ctx, limit)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	users := make([]UserActivity, 0)
	for i := range msgs {
		if j, seen := index[msgs[i].UserID]; seen {
			users[j].MessageCount++
			continue
		}
		index[msgs[i].UserID] = len(users)
		users = append(users, UserActivity{
			UserID:       msgs[i].UserID,
			Username:     msgs[i].Username,
			MessageCount: 1,
		})
	}

	return users, nil
}

// aggregate computes batch totals. A message counts as processed when the
// classifier extracted progress or next steps; everything else, including
// messages where the model legitimately found nothing, counts as failed.
func aggregate(msgs []models.Message) *models.BatchResult {
	processed := 0
	for i := range msgs {
		if msgs[i].Processed() {
			processed++
		}
	}

	return &models.BatchResult{
		TotalMessages:     len(msgs),
		ProcessedMessages: processed,
		FailedMessages:    len(msgs) - processed,
		Results:           msgs,
	}
}
