package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pricingboard/internal/config"
	"pricingboard/internal/logging"
)

func noColor() *bool {
	v := false
	return &v
}

func TestConsoleLoggerWritesComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
		Color:       noColor(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "pipeline").Info("task moved", logging.String(logging.FieldStage, "pricing"))
	logger.Debug("hidden")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO pipeline: task moved stage=pricing") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes: %q", out)
	}
}

func TestConsoleLoggerColorsLevelWhenRequested(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "color.log")
	color := true
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}, Color: &color})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("careful")
	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "\x1b[33mWARN\x1b[0m") {
		t.Fatalf("expected colored level label: %q", data)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithTaskID(context.Background(), "task-1")
	ctx = logging.WithActor(ctx, "user-7", "admin")
	ctx = logging.WithRequestID(ctx, "req-42")
	logging.WithContext(ctx, logger).Debug("edit committed")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, data)
	}
	want := map[string]string{
		"msg":                      "edit committed",
		"level":                    "debug",
		logging.FieldTaskID:        "task-1",
		logging.FieldActor:         "user-7",
		logging.FieldRole:          "admin",
		logging.FieldCorrelationID: "req-42",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s = %v, want %q", key, entry[key], value)
		}
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts field: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "board.log")); err != nil {
		t.Fatalf("expected board.log: %v", err)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WarnWithContext(logger, "ignored", "test")
}
