package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/config"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("record %q is not JSON: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestOutputFor(t *testing.T) {
	tests := []struct {
		output string
		want   *os.File
	}{
		{"", os.Stderr},
		{"stderr", os.Stderr},
		{"stdout", os.Stdout},
		{"STDOUT", os.Stdout},
		{"/var/log/faultcount.log", os.Stderr},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			if got := outputFor(tt.output); got != tt.want {
				t.Errorf("outputFor(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3", &buf)

	logger.Info("scan completed", "device_id", "pump-7", "count", 2)

	records := decodeRecords(t, &buf)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec["msg"] != "scan completed" || rec["device_id"] != "pump-7" || rec["count"] != float64(2) {
		t.Errorf("record = %v", rec)
	}
	if rec["service"] != "faultcount" || rec["version"] != "1.2.3" {
		t.Errorf("default attrs = service %v version %v", rec["service"], rec["version"])
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "TEXT"}, "dev", &buf)

	logger.Debug("line decoded", "line", 3)

	out := buf.String()
	for _, want := range []string{"level=DEBUG", `msg="line decoded"`, "service=faultcount", "version=dev", "line=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output %q missing %q", out, want)
		}
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("text format produced JSON: %q", out)
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn"}, "dev", &buf)

	logger.Info("scan completed")
	logger.Warn("scan failed", "error", "boom")

	records := decodeRecords(t, &buf)
	if len(records) != 1 || records[0]["msg"] != "scan failed" {
		t.Errorf("records = %v, want only the warning", records)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{}, "dev", &buf)

	child := logger.With("component", "dispatch")
	if child == logger {
		t.Fatal("With() returned the parent logger")
	}

	child.Info("worker finished", "worker", 1)
	logger.Info("parent record")

	records := decodeRecords(t, &buf)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["component"] != "dispatch" || records[0]["service"] != "faultcount" {
		t.Errorf("child record = %v", records[0])
	}
	if _, ok := records[1]["component"]; ok {
		t.Errorf("parent record has component: %v", records[1])
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default() = nil")
	}
	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) || logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should log at info and above")
	}
}
