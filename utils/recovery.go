package utils

import (
	"fmt"
	"runtime/debug"
)

// ErrorReporter is the minimal logging surface the recovery helpers
// need. *Logger satisfies it, as do the logger interfaces the engine
// and backend client are wired with.
type ErrorReporter interface {
	Error(format string, v ...interface{})
}

// RecoverFromPanic recovers from panics and logs them with the stack.
func RecoverFromPanic(logger ErrorReporter, context string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered in %s: %v\nStack trace:\n%s", context, r, string(debug.Stack()))
	}
}

// SafeGo runs a goroutine with panic recovery.
func SafeGo(logger ErrorReporter, context string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, context)
		fn()
	}()
}

// WrapError wraps an error with additional context.
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
