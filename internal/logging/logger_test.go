package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvauto/internal/config"
	"mkvauto/internal/logging"
)

func TestNewFromConfigWritesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("disc inserted", logging.String(logging.FieldDevice, "/dev/sr0"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode json log line %q: %v", data, err)
	}
	if record["msg"] != "disc inserted" || record["device"] != "/dev/sr0" {
		t.Fatalf("unexpected record %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "monitor").Info("waiting for disc", logging.Int("interval", 5))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", line)
	}
	if !strings.Contains(line, "INFO monitor: waiting for disc interval=5") {
		t.Fatalf("unexpected console line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("file output must not be colourised: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "numbering overflow", "numbering_overflow",
		logging.String(logging.FieldImpact, "output written to base folder"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "numbering_overflow" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing default error hint: %v", record)
	}
	if record[logging.FieldImpact] != "output written to base folder" {
		t.Fatalf("caller impact overwritten: %v", record)
	}
}

func TestWithContextAddsSessionID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := logging.WithSessionID(context.Background(), "abc-123")
	logging.WithContext(ctx, base).Info("scan")
	if !strings.Contains(buf.String(), `"session_id":"abc-123"`) {
		t.Fatalf("expected session id, got %s", buf.String())
	}
	if _, ok := logging.SessionIDFromContext(context.Background()); ok {
		t.Fatal("expected no session id on bare context")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}
