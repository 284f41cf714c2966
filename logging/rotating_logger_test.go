package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRotatingLoggerWritesCurrentWeekFile(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(Options{Dir: tempDir, RetentionWeeks: 1})

	testMessage := "Test log message"
	if _, err := rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	expectedFileName := filepath.Join(tempDir, "annotator-"+getWeekKey(time.Now())+".log")
	content, err := os.ReadFile(expectedFileName)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}
}

func TestRotatingLoggerSizeRotation(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(Options{Dir: tempDir, RetentionWeeks: 1, MaxFileSize: 64})

	// Two writes past the size limit force a numbered overflow file.
	payload := strings.Repeat("x", 48)
	if _, err := rl.Write([]byte(payload)); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if _, err := rl.Write([]byte(payload)); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	pattern := filepath.Join(tempDir, "annotator-*_01.log")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Expected one size-rotated file, found %v", matches)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(Options{Dir: tempDir, RetentionWeeks: 1})

	oldFile := filepath.Join(tempDir, "annotator-2020-W01.log")
	if err := os.WriteFile(oldFile, []byte("ancient"), 0644); err != nil {
		t.Fatalf("Failed to create old log file: %v", err)
	}
	oldTime := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("Failed to age old log file: %v", err)
	}

	// An unrelated file must survive the sweep.
	keepFile := filepath.Join(tempDir, "notes.txt")
	if err := os.WriteFile(keepFile, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to create unrelated file: %v", err)
	}
	if err := os.Chtimes(keepFile, oldTime, oldTime); err != nil {
		t.Fatalf("Failed to age unrelated file: %v", err)
	}

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected the old log file to be removed")
	}
	if _, err := os.Stat(keepFile); err != nil {
		t.Error("Expected the unrelated file to survive cleanup")
	}
}

func TestGetWeekKeyFormat(t *testing.T) {
	key := getWeekKey(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC))
	if key != "2026-W02" {
		t.Errorf("Expected '2026-W02', got %q", key)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetupLoggerHonorsConfiguredLevel(t *testing.T) {
	tempDir := t.TempDir()
	logger := SetupLogger(Options{Dir: tempDir, Level: slog.LevelWarn, RetentionWeeks: 1})

	logger.Info("below threshold entry")
	logger.Warn("at threshold entry")

	logPath := filepath.Join(tempDir, "annotator-"+getWeekKey(time.Now())+".log")
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if strings.Contains(string(content), "below threshold entry") {
		t.Error("Info entry written despite warn level")
	}
	if !strings.Contains(string(content), "at threshold entry") {
		t.Error("Warn entry missing from log file")
	}
}
