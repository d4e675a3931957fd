package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func resetLogger() {
	defaultLogger = nil
	once = sync.Once{}
}

func TestInitWithFile(t *testing.T) {
	resetLogger()

	tempDir := t.TempDir()

	err := InitWithFile("debug", tempDir)
	if err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer Close()
	SetOutput(&bytes.Buffer{})

	logPath := GetLogFilePath()
	if logPath == "" {
		t.Fatal("Expected log file path, got empty string")
	}

	Debug("test debug message")
	Info("test info message")
	Warn("test warn message")
	Error("test error message")

	Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	logContent := string(content)

	if !strings.Contains(logContent, "test debug message") {
		t.Error("Debug message not found in log file")
	}
	if !strings.Contains(logContent, "[WARN] test warn message") {
		t.Error("Warn message not found in log file")
	}

	// Check no ANSI color codes
	if strings.Contains(logContent, "\033[") {
		t.Error("Log file contains ANSI color codes")
	}

	if filepath.Dir(logPath) != tempDir {
		t.Errorf("Log file not in expected directory: %s", logPath)
	}
}

func TestLogFilenameFormat(t *testing.T) {
	resetLogger()

	tempDir := t.TempDir()

	err := InitWithFile("info", tempDir)
	if err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer Close()

	filename := filepath.Base(GetLogFilePath())

	// Check filename format: YYYY-MM-DD_HH-MM-SS_TZ.log
	if !strings.HasSuffix(filename, ".log") {
		t.Errorf("Log filename should end with .log: %s", filename)
	}

	parts := strings.Split(strings.TrimSuffix(filename, ".log"), "_")
	if len(parts) < 3 {
		t.Errorf("Log filename format incorrect: %s", filename)
	}
}

func TestLevelFiltering(t *testing.T) {
	resetLogger()

	var buf bytes.Buffer
	Init("warn")
	SetOutput(&buf)
	SetColorEnable(false)

	Info("hidden")
	Warn("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 1") {
		t.Errorf("warn message missing: %q", out)
	}

	SetLevel("debug")
	Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Errorf("debug message missing after SetLevel: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
