// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingVar indicates a required environment variable was not set.
var ErrMissingVar = errors.New("missing required environment variable")

// Settings holds all application configuration. Immutable after Load.
type Settings struct {
	// slack
	SlackBotToken  string
	SlackChannelID string

	// openai
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// application
	LogLevel     string
	OutputFormat string
	MaxMessages  int
}

// Load reads configuration from environment variables, honoring a .env file
// in the working directory if one exists.
func Load() (*Settings, error) {
	// .env is optional; deployed environments set variables directly
	_ = godotenv.Load()

	cfg := &Settings{
		SlackBotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID: os.Getenv("SLACK_CHANNEL_ID"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OutputFormat:   getEnv("OUTPUT_FORMAT", "json"),
		MaxMessages:    getEnvInt("MAX_MESSAGES", 100),
	}

	if cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("%w: SLACK_BOT_TOKEN", ErrMissingVar)
	}
	if cfg.SlackChannelID == "" {
		return nil, fmt.Errorf("%w: SLACK_CHANNEL_ID", ErrMissingVar)
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingVar)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
// Inline "# comment" text after the value is stripped, since .env files allow it.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	val = strings.TrimSpace(strings.SplitN(val, "#", 2)[0])
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	return defaultVal
}
