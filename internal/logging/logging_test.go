package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{
			name:   "Debug level JSON format",
			level:  LevelDebug,
			format: FormatJSON,
		},
		{
			name:   "Warn level JSON format",
			level:  LevelWarn,
			format: FormatJSON,
		},
		{
			name:   "Info level Text format",
			level:  LevelInfo,
			format: FormatText,
		},
		{
			name:   "Default level (invalid value)",
			level:  Level(999),
			format: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestInitLoggerTo_LevelAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelWarn, FormatJSON)
	defer InitLogger(LevelInfo, FormatJSON)

	Info("hidden")
	Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(output, "shown") {
		t.Error("Expected warn message in output")
	}
	// RFC3339 timestamps carry a T separator and no fractional seconds
	if !strings.Contains(output, `"time":"`) || strings.Contains(output, ".000") {
		t.Errorf("unexpected timestamp format: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("Expected run ID run-123, got %s", got)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("Expected empty run ID, got %s", got)
	}
	if got := GetRunID(context.WithValue(context.Background(), RunIDKey, 12345)); got != "" {
		t.Errorf("Expected empty run ID for wrong type, got %s", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-abc")
	output := captureLogOutput(func() {
		InfoContext(ctx, "with run")
	})
	if !strings.Contains(output, "run-abc") {
		t.Errorf("Expected run ID in output, got %s", output)
	}
}

func TestLoggingFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("debug message", "key", "value") }},
		{"Info", func() { Info("info message", "key", "value") }},
		{"Warn", func() { Warn("warning message", "key", "value") }},
		{"Error", func() { Error("error message", "key", "value") }},
		{"DebugContext", func() { DebugContext(context.Background(), "debug message") }},
		{"WarnContext", func() { WarnContext(context.Background(), "warn message") }},
		{"ErrorContext", func() { ErrorContext(context.Background(), "error message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if output := captureLogOutput(tt.fn); output == "" {
				t.Error("Expected log output, got empty string")
			}
		})
	}
}

func TestDomainHelpers(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")

	tests := []struct {
		name string
		fn   func()
		want []string
	}{
		{
			name: "BatchStarted",
			fn:   func() { BatchStarted(ctx, "/src", 3, 2) },
			want: []string{"batch_started", "/src", `"workers":2`},
		},
		{
			name: "DocumentProcessed",
			fn: func() {
				DocumentProcessed(ctx, "a.wdw", "a_wdw.clair", "utf-8", 2, 15*time.Millisecond)
			},
			want: []string{"document_processed", "a_wdw.clair", `"duration_ms":15`},
		},
		{
			name: "DocumentFailed",
			fn:   func() { DocumentFailed(ctx, "b.wdw", errors.New("decode failed")) },
			want: []string{"document_failed", "decode failed"},
		},
		{
			name: "AnomalyFound",
			fn:   func() { AnomalyFound(ctx, "a.wdw", "control", "99", 5, 3, "name", "Field1") },
			want: []string{"anomaly_found", `"type_code":"99"`, "Field1"},
		},
		{
			name: "TableWarning",
			fn:   func() { TableWarning("tables/x.txt", errors.New("not found")) },
			want: []string{"table_warning", "tables/x.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("Expected output to contain %s, got %s", w, output)
				}
			}
		})
	}
}
