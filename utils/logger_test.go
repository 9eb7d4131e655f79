package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesLeveledLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Info("hello %s", "world")
	logger.Warn("watch out")
	logger.Error("broke: %v", fmt.Errorf("boom"))
	logger.Debug("hidden by default")
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "[INFO] hello world") {
		t.Error("info line missing")
	}
	if !strings.Contains(text, "[WARN] watch out") {
		t.Error("warn line missing")
	}
	if !strings.Contains(text, "[ERROR] broke: boom") {
		t.Error("error line missing")
	}
	if strings.Contains(text, "hidden by default") {
		t.Error("debug line written without verbose")
	}
}

func TestLogger_VerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.SetVerbose(true)
	logger.Debug("now visible")
	logger.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "[DEBUG] now visible") {
		t.Error("debug line missing with verbose on")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "ctx") != nil {
		t.Error("nil error must stay nil")
	}
	err := WrapError(fmt.Errorf("inner"), "loading state")
	if err == nil || err.Error() != "loading state: inner" {
		t.Errorf("wrapped message %v", err)
	}
}
