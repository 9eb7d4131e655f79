package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Logger writes leveled lines to a daily log file. Output stays off
// stdout so it never interleaves with the interactive prompt.
type Logger struct {
	file    *os.File
	logger  *log.Logger
	verbose bool
}

// NewLogger opens (creating directories as needed) the log file.
func NewLogger(logPath string) (*Logger, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:   file,
		logger: log.New(file, "", log.LstdFlags),
	}, nil
}

// SetVerbose enables Debug output.
func (l *Logger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Info logs an info message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.logger.Println("[INFO] " + fmt.Sprintf(format, v...))
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logger.Println("[WARN] " + fmt.Sprintf(format, v...))
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	l.logger.Println("[ERROR] " + fmt.Sprintf(format, v...))
}

// Debug logs a debug message when verbose is enabled.
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.verbose {
		return
	}
	l.logger.Println("[DEBUG] " + fmt.Sprintf(format, v...))
}

// GetLogPath returns the default, date-stamped log path under the user
// cache directory.
func GetLogPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "dockchat", "logs", fmt.Sprintf("app-%s.log", time.Now().Format("2006-01-02")))
}
