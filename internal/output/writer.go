// Package output serializes batch results to files and renders console summaries.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yaboibean/SMARTscraper/internal/logger"
	"github.com/yaboibean/SMARTscraper/internal/models"
)

// ErrUnsupportedFormat indicates a save format other than json or csv.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// csvHeader is the fixed column order for CSV output.
var csvHeader = []string{
	"user_id", "username", "timestamp", "text", "channel_id",
	"thread_ts", "progress", "next_steps", "processed_at", "confidence_score",
}

// Writer saves batch results to timestamped files in one output directory
// and prints human-readable summaries.
type Writer struct {
	dir string
	out io.Writer
	log *logger.Logger
}

// NewWriter creates a writer rooted at dir ("output" if empty). Console
// output goes to stdout unless redirected with SetOutput.
func NewWriter(dir string, log *logger.Logger) *Writer {
	if dir == "" {
		dir = "output"
	}
	return &Writer{dir: dir, out: os.Stdout, log: log}
}

// SetOutput redirects console printing, for tests.
func (w *Writer) SetOutput(out io.Writer) {
	w.out = out
}

// Save writes the result to a timestamped file in the requested format
// (case-insensitive "json" or "csv") and returns the file path. An
// unsupported format fails before anything is touched on disk.
func (w *Writer) Save(result *models.BatchResult, format string) (string, error) {
	var ext string
	switch strings.ToLower(format) {
	case "json":
		ext = "json"
	case "csv":
		ext = "csv"
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("slack_messages_%s.%s", time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(w.dir, name)

	var err error
	if ext == "json" {
		err = w.saveJSON(result, path)
	} else {
		err = w.saveCSV(result, path)
	}
	if err != nil {
		return "", err
	}

	w.log.Info().Str("path", path).Msg("output: results saved")
	return path, nil
}

func (w *Writer) saveJSON(result *models.BatchResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (w *Writer) saveCSV(result *models.BatchResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range result.Results {
		if err := cw.Write(csvRow(&result.Results[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(m *models.Message) []string {
	return []string{
		m.UserID,
		m.Username,
		m.Timestamp.Format(time.RFC3339),
		m.Text,
		m.ChannelID,
		strOrEmpty(m.ThreadTS),
		strOrEmpty(m.Progress),
		strOrEmpty(m.NextSteps),
		timeOrEmpty(m.ProcessedAt),
		floatOrEmpty(m.ConfidenceScore),
	}
}

// PrintSummary prints a fixed-width block with batch totals and success rate.
func (w *Writer) PrintSummary(result *models.BatchResult) {
	divider := strings.Repeat("=", 50)

	fmt.Fprintf(w.out, "\n%s\n", divider)
	fmt.Fprintln(w.out, "PROCESSING SUMMARY")
	fmt.Fprintln(w.out, divider)
	fmt.Fprintf(w.out, "Total messages: %d\n", result.TotalMessages)
	fmt.Fprintf(w.out, "Processed messages: %d\n", result.ProcessedMessages)
	fmt.Fprintf(w.out, "Failed messages: %d\n", result.FailedMessages)

	// empty batches would otherwise divide by zero
	rate := 0.0
	if result.TotalMessages > 0 {
		rate = float64(result.ProcessedMessages) / float64(result.TotalMessages) * 100
	}
	fmt.Fprintf(w.out, "Success rate: %.1f%%\n", rate)
	fmt.Fprintln(w.out, divider)
}

// PrintResults prints a per-message detail block. When limit > 0 and the
// batch is larger, output is truncated with an "...and N more" trailer.
func (w *Writer) PrintResults(result *models.BatchResult, limit int) {
	shown := result.Results
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	divider := strings.Repeat("-", 50)
	for i := range shown {
		m := &shown[i]
		fmt.Fprintf(w.out, "\n%s\n", divider)
		fmt.Fprintf(w.out, "Message %d - %s (%s)\n", i+1, m.Username, m.Timestamp.Format(time.RFC3339))
		fmt.Fprintln(w.out, divider)
		fmt.Fprintf(w.out, "Original: %s\n", m.Text)
		fmt.Fprintf(w.out, "\nProgress: %s\n", valueOr(m.Progress, "None identified"))
		fmt.Fprintf(w.out, "Next Steps: %s\n", valueOr(m.NextSteps, "None identified"))
		fmt.Fprintf(w.out, "Confidence: %.2f\n", confidenceOrZero(m.ConfidenceScore))
	}

	if limit > 0 && len(result.Results) > limit {
		fmt.Fprintf(w.out, "\n... and %d more messages\n", len(result.Results)-limit)
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func confidenceOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}
