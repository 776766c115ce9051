package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/studyloop/internal/logger"
)

var (
	// ErrNotFound is returned by storage lookups that match no row.
	ErrNotFound = stderrors.New("not found")
	// ErrNoTemplate means the user has no active default template; sync is a no-op.
	ErrNoTemplate = stderrors.New("no active default template")
	// ErrInvalidStatus is returned for statuses outside the progress lifecycle.
	ErrInvalidStatus = stderrors.New("invalid progress status")
	// ErrInvalidDay is returned for malformed calendar days.
	ErrInvalidDay = stderrors.New("invalid day")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
