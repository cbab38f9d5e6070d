package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaboibean/SMARTscraper/internal/classifier"
	"github.com/yaboibean/SMARTscraper/internal/config"
	"github.com/yaboibean/SMARTscraper/internal/llm"
	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/output"
	"github.com/yaboibean/SMARTscraper/internal/pipeline"
	"github.com/yaboibean/SMARTscraper/internal/slack"
)

// extraction call parameters, kept low-temperature for determinism
const (
	extractionMaxTokens   = 500
	extractionTemperature = 0.3
	extractionTimeout     = 60 * time.Second
)

// sampleMessage exercises one live extraction during connection testing.
const sampleMessage = "I completed the project setup yesterday. Next, I need to implement the API endpoints."

// app bundles the wired components behind the CLI commands.
type app struct {
	cfg        *config.Settings
	slack      *slack.Client
	classifier *classifier.Classifier
	service    *pipeline.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.LogLevel, ""); err != nil {
		return nil, err
	}
	log := logger.Get()

	slackClient := slack.NewClient(cfg, log)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		APIKey:      cfg.OpenAIAPIKey,
		MaxTokens:   extractionMaxTokens,
		Temperature: extractionTemperature,
		Timeout:     extractionTimeout,
	})
	cls := classifier.New(llmClient, log)

	writer := output.NewWriter("", log)

	return &app{
		cfg:        cfg,
		slack:      slackClient,
		classifier: cls,
		service:    pipeline.NewService(slackClient, cls, writer, cfg, log),
	}, nil
}

// --- scrape ---

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape messages from the Slack channel and process them",
	Long: `Scrape messages from the configured Slack channel, extract progress and
next steps from each one, and save the results to a timestamped file.

Examples:
  smartscraper scrape
  smartscraper scrape --user U12345678 --limit 50
  smartscraper scrape --format csv --show=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		show, _ := cmd.Flags().GetBool("show")

		a, err := newApp()
		if err != nil {
			return err
		}

		path, err := a.service.Run(cmd.Context(), pipeline.RunOptions{
			UserID:      userID,
			Limit:       limit,
			Format:      format,
			ShowResults: show,
		})
		if err != nil {
			return err
		}

		printSuccess("Results saved to: %s", path)
		return nil
	},
}

// --- list-users ---

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List users who have posted in the channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}

		users, err := a.service.ListUsers(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(users) == 0 {
			printWarning("No users found in the channel")
			return nil
		}

		sort.SliceStable(users, func(i, j int) bool {
			return users[i].MessageCount > users[j].MessageCount
		})

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "USER ID\tUSERNAME\tMESSAGES")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", u.UserID, u.Username, u.MessageCount)
		}
		return tw.Flush()
	},
}

// --- test-connections ---

var testConnectionsCmd = &cobra.Command{
	Use:   "test-connections",
	Short: "Verify Slack and OpenAI API connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		slackOK := a.slack.TestConnection(cmd.Context())
		if slackOK {
			printSuccess("Slack API connection successful")
		} else {
			printError("Slack API connection failed")
		}

		ex := a.classifier.Classify(cmd.Context(), sampleMessage)
		switch {
		case ex.Progress != nil && ex.NextSteps != nil:
			printSuccess("OpenAI API connection successful")
			printStatus("Progress", "%s", *ex.Progress)
			printStatus("Next Steps", "%s", *ex.NextSteps)
		case ex.Progress != nil || ex.NextSteps != nil:
			printWarning("OpenAI API connected but extraction may need tuning")
		default:
			printError("OpenAI extraction failed")
		}

		if !slackOK {
			return fmt.Errorf("slack connection test failed")
		}
		return nil
	},
}

// --- show-config ---

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Show the resolved configuration (secrets excluded)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printStatus("Slack Channel ID", "%s", cfg.SlackChannelID)
		printStatus("OpenAI Model", "%s", cfg.OpenAIModel)
		printStatus("Log Level", "%s", cfg.LogLevel)
		printStatus("Output Format", "%s", cfg.OutputFormat)
		printStatus("Max Messages", "%d", cfg.MaxMessages)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringP("user", "u", "", "scrape messages from a specific user id")
	scrapeCmd.Flags().IntP("limit", "l", 0, "maximum number of messages to process")
	scrapeCmd.Flags().StringP("format", "f", "", "output format (json or csv)")
	scrapeCmd.Flags().Bool("show", true, "show results in the console")

	listUsersCmd.Flags().IntP("limit", "l", 0, "maximum number of messages to scan")
}
