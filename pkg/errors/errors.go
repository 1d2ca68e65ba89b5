package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "DMIR1001"
	ErrCodeConnectionTimeout    ErrorCode = "DMIR1002"
	ErrCodeAuthenticationFailed ErrorCode = "DMIR1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "DMIR2001"
	ErrCodeConfigInvalid  ErrorCode = "DMIR2002"
	ErrCodeConfigMissing  ErrorCode = "DMIR2003"

	// Schema provisioning errors (3xxx)
	ErrCodeSchemaProvision ErrorCode = "DMIR3001"
	ErrCodeSchemaStatement ErrorCode = "DMIR3002"

	// Replication data-path errors (4xxx)
	ErrCodeExtractFailed  ErrorCode = "DMIR4001"
	ErrCodeLoadFailed     ErrorCode = "DMIR4002"
	ErrCodeSQLTransaction ErrorCode = "DMIR4003"
	ErrCodeControlWrite   ErrorCode = "DMIR4004"

	// File and report errors (5xxx)
	ErrCodeReportWrite  ErrorCode = "DMIR5001"
	ErrCodeFileNotFound ErrorCode = "DMIR5002"
	ErrCodeHistoryWrite ErrorCode = "DMIR5003"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "DMIR6001"
	ErrCodeRowCountMismatch ErrorCode = "DMIR6002"
	ErrCodeInvalidInput     ErrorCode = "DMIR6003"
	ErrCodeTableOrder       ErrorCode = "DMIR6004"

	// Scheduler errors (7xxx)
	ErrCodeSchedulerFailed ErrorCode = "DMIR7001"
	ErrCodeRunTimeout      ErrorCode = "DMIR7002"
	ErrCodeNotifyFailed    ErrorCode = "DMIR7003"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "DMIR9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Run cannot proceed
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, run continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error. Connection failures are
// fatal to a replication run.
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check that the database is reachable",
			"Verify host, port and credentials in the configuration",
			"Run 'starmirror setup' to reconfigure connections",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'starmirror setup' to reconfigure",
		)
}

// SchemaError creates a target schema provisioning error. Without a target
// schema the run cannot proceed.
func SchemaError(message string, statement string, cause error) *AppError {
	return Wrap(cause, ErrCodeSchemaProvision, message).
		WithSeverity(SeverityCritical).
		WithContext("statement", truncateString(statement, 200))
}

// ExtractError creates a source read error for one table. The table's load is
// skipped and the run continues.
func ExtractError(table string, cause error) *AppError {
	return Wrap(cause, ErrCodeExtractFailed, fmt.Sprintf("Failed to extract table %s", table)).
		WithContext("table", table).
		WithSuggestions(
			"Verify the table exists in the source schema",
			"Check source database permissions",
		)
}

// LoadError creates a target load error for one table. The transaction is
// rolled back, so the table's prior contents survive.
func LoadError(table string, cause error) *AppError {
	return Wrap(cause, ErrCodeLoadFailed, fmt.Sprintf("Failed to load table %s", table)).
		WithContext("table", table)
}

// ValidationError creates a validation error
func ValidationError(table string, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", table, reason)).
		WithContext("table", table).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// ReportError creates a report artifact write error. Report failures never
// change a run's verdict.
func ReportError(path string, cause error) *AppError {
	return Wrap(cause, ErrCodeReportWrite, "Failed to write run report").
		WithContext("path", path).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// SchedulerError creates a scheduler-level error
func SchedulerError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeSchedulerFailed, message)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
