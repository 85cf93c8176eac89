package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"parrot-hq/parrot/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("hello", "model", "gpt-4o")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["model"] != "gpt-4o" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetup_TextFormatAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("filtered out")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "filtered out") {
		t.Error("info entry must be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn entry missing from output")
	}
}

func TestSetup_UnknownFormat(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Level: "info", Format: "xml"}, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
