package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"parrot-hq/parrot/pkg/usage"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatText is human-readable columns (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a format name from a command flag.
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case FormatText, FormatJSON, FormatCSV:
		return OutputFormat(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, or csv)", name)
	}
}

// WriteUsageReport renders ledger rows in the requested format.
func WriteUsageReport(w io.Writer, format OutputFormat, records []usage.Record) error {
	switch format {
	case FormatJSON:
		return writeUsageJSON(w, records)
	case FormatCSV:
		return writeUsageCSV(w, records)
	default:
		return writeUsageText(w, records)
	}
}

func writeUsageText(w io.Writer, records []usage.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no usage recorded")
		return err
	}

	var in, out int
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s  %-24s  in=%-6d out=%-6d %s\n",
			r.RecordedAt.Format(time.RFC3339), r.Model,
			r.InputTokens, r.OutputTokens, r.RequestID); err != nil {
			return err
		}
		in += r.InputTokens
		out += r.OutputTokens
	}

	_, err := fmt.Fprintf(w, "total: %d requests, %d input tokens, %d output tokens\n",
		len(records), in, out)
	return err
}

func writeUsageJSON(w io.Writer, records []usage.Record) error {
	type row struct {
		RequestID    string    `json:"request_id"`
		Model        string    `json:"model"`
		InputTokens  int       `json:"input_tokens"`
		OutputTokens int       `json:"output_tokens"`
		RecordedAt   time.Time `json:"recorded_at"`
	}

	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = row(r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeUsageCSV(w io.Writer, records []usage.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"request_id", "model", "input_tokens", "output_tokens", "recorded_at"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.RequestID,
			r.Model,
			strconv.Itoa(r.InputTokens),
			strconv.Itoa(r.OutputTokens),
			r.RecordedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
