package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"none", LevelNone},
		{"garbage", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	for level, want := range map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	} {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	l, err := New(LevelInfo, path, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	l.Debug("not shown")
	l.Info("hello %s", "world")
	l.Error("boom")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)

	if strings.Contains(content, "not shown") {
		t.Errorf("debug message logged at info level")
	}
	if !strings.Contains(content, "[INFO] [test] hello world") {
		t.Errorf("info line missing, got:\n%s", content)
	}
	if !strings.Contains(content, "[ERROR] [test] boom") {
		t.Errorf("error line missing, got:\n%s", content)
	}
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	l, err := New(LevelError, path, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Info("before")
	l.SetLevel(LevelInfo)
	l.Info("after")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "before") {
		t.Errorf("message below level was logged")
	}
	if !strings.Contains(string(data), "after") {
		t.Errorf("message at level was not logged")
	}
}

func TestEmptyPathDisablesLogger(t *testing.T) {
	l, err := New(LevelDebug, "", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	// Must be a no-op, not a panic.
	l.Info("discarded")
}

func TestWithPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	l, err := New(LevelInfo, path, "root")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.WithPrefix("sub").Info("nested")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[root:sub] nested") {
		t.Errorf("prefix chain missing, got:\n%s", string(data))
	}
}
