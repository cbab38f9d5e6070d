// Package slack wraps the Slack Web API operations used by the scraper.
package slack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/yaboibean/SMARTscraper/internal/config"
	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/models"
)

// ErrConnection indicates the channel history could not be fetched at all.
// This is the only fatal failure mode of the fetcher.
var ErrConnection = errors.New("slack connection failed")

// api is the subset of the Slack Web API client the fetcher relies on.
type api interface {
	GetConversationHistoryContext(ctx context.Context, params *slackapi.GetConversationHistoryParameters) (*slackapi.GetConversationHistoryResponse, error)
	GetUserInfoContext(ctx context.Context, user string) (*slackapi.User, error)
	AuthTestContext(ctx context.Context) (*slackapi.AuthTestResponse, error)
}

// Client fetches and normalizes messages from one Slack channel.
type Client struct {
	api         api
	channelID   string
	maxMessages int
	log         *logger.Logger
}

// NewClient creates a Slack client for the configured channel.
func NewClient(cfg *config.Settings, log *logger.Logger) *Client {
	return &Client{
		api:         slackapi.New(cfg.SlackBotToken),
		channelID:   cfg.SlackChannelID,
		maxMessages: cfg.MaxMessages,
		log:         log,
	}
}

// ListChannelMessages retrieves up to limit most recent messages from the
// channel. A limit <= 0 falls back to the configured maximum. Bot messages,
// system-subtype messages, and messages without an author are skipped.
func (c *Client) ListChannelMessages(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = c.maxMessages
	}

	resp, err := c.api.GetConversationHistoryContext(ctx, &slackapi.GetConversationHistoryParameters{
		ChannelID: c.channelID,
		Limit:     limit,
	})
	if err != nil {
		c.log.Error().Err(err).Str("channel_id", c.channelID).Msg("slack: fetching channel history failed")
		return nil, fmt.Errorf("%w: fetch channel history: %v", ErrConnection, err)
	}

	// usernames resolved at most once per fetch
	userCache := make(map[string]string)

	messages := make([]models.Message, 0, len(resp.Messages))
	for _, raw := range resp.Messages {
		// skip bot and system messages
		if raw.BotID != "" || raw.SubType != "" {
			continue
		}
		if raw.User == "" {
			continue
		}

		username, ok := userCache[raw.User]
		if !ok {
			username = c.resolveUsername(ctx, raw.User)
			userCache[raw.User] = username
		}

		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			c.log.Warn().Err(err).Str("user_id", raw.User).Msg("slack: skipping message with malformed timestamp")
			continue
		}

		msg := models.Message{
			UserID:    raw.User,
			Username:  username,
			Timestamp: ts,
			Text:      raw.Text,
			ChannelID: c.channelID,
		}
		if raw.ThreadTimestamp != "" {
			threadTS := raw.ThreadTimestamp
			msg.ThreadTS = &threadTS
		}

		messages = append(messages, msg)
	}

	c.log.Info().Int("count", len(messages)).Msg("slack: retrieved channel messages")
	return messages, nil
}

// ListUserMessages retrieves channel messages posted by one user, by
// filtering the channel listing after the fetch.
func (c *Client) ListUserMessages(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	all, err := c.ListChannelMessages(ctx, limit)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Message, 0, len(all))
	for _, msg := range all {
		if msg.UserID == userID {
			filtered = append(filtered, msg)
		}
	}

	c.log.Info().Int("count", len(filtered)).Str("user_id", userID).Msg("slack: filtered user messages")
	return filtered, nil
}

// TestConnection performs an auth check against the Slack API and reports
// the outcome without raising.
func (c *Client) TestConnection(ctx context.Context) bool {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("slack: connection test failed")
		return false
	}

	c.log.Info().Str("user", resp.User).Msg("slack: connected")
	return true
}

// resolveUsername looks up a user's display name. Lookup failure is
// non-fatal: it logs a warning and falls back to a synthetic name.
func (c *Client) resolveUsername(ctx context.Context, userID string) string {
	info, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("slack: could not get user info")
		return "user_" + userID
	}
	if info == nil || info.Name == "" {
		return "user_" + userID
	}
	return info.Name
}

// parseTimestamp converts a Slack ts value ("1692172800.000100") to a time.
func parseTimestamp(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slack timestamp %q: %w", ts, err)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), nil
}
