package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of the log message
type LogLevel int

const (
	// DEBUG level for detailed information (mostly useful for development)
	DEBUG LogLevel = iota
	// INFO level for general operational information
	INFO
	// WARN level for non-critical issues that might need attention
	WARN
	// ERROR level for error events that might still allow the agent to continue
	ERROR
	// FATAL level for critical errors that prevent features from working
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[LogLevel]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

// String returns the string representation of the log level
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// Logger represents a logger instance
type Logger struct {
	level     LogLevel
	output    io.Writer
	prefix    string
	useColors bool
	mu        sync.Mutex
}

// LoggerOption is a function that configures a Logger
type LoggerOption func(*Logger)

// NewLogger creates a new logger with the specified options
func NewLogger(options ...LoggerOption) *Logger {
	logger := &Logger{
		level:     INFO,
		output:    os.Stdout,
		useColors: true,
	}

	for _, option := range options {
		option(logger)
	}

	return logger
}

// WithLevel sets the minimum log level
func WithLevel(level LogLevel) LoggerOption {
	return func(l *Logger) {
		l.level = level
	}
}

// WithOutput sets the output writer
func WithOutput(output io.Writer) LoggerOption {
	return func(l *Logger) {
		l.output = output
	}
}

// WithPrefix sets a prefix for all log messages
func WithPrefix(prefix string) LoggerOption {
	return func(l *Logger) {
		l.prefix = prefix
	}
}

// WithColors enables or disables colored output
func WithColors(useColors bool) LoggerOption {
	return func(l *Logger) {
		l.useColors = useColors
	}
}

// SetLevel changes the logger's minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// log logs a message with the specified level and optional formatting arguments
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, file, line, ok := runtime.Caller(2)
	callerInfo := "??:??"
	if ok {
		callerInfo = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	levelStr := level.String()
	prefix := ""
	if l.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", l.prefix)
	}

	if l.useColors {
		color := levelColors[level]
		reset := "\033[0m"
		levelStr = color + levelStr + reset
		if prefix != "" {
			prefix = fmt.Sprintf("%s[%s]%s ", color, l.prefix, reset)
		}
	}

	fmt.Fprintf(l.output, "%s [%s] %s%s %s\n", timestamp, levelStr, prefix, callerInfo, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
	os.Exit(1)
}

// ParseLevel parses a string into a LogLevel
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Default logger instance
var DefaultLogger = NewLogger()

// Debug logs a debug message to the default logger
func Debug(format string, args ...interface{}) {
	DefaultLogger.Debug(format, args...)
}

// Info logs an info message to the default logger
func Info(format string, args ...interface{}) {
	DefaultLogger.Info(format, args...)
}

// Warn logs a warning message to the default logger
func Warn(format string, args ...interface{}) {
	DefaultLogger.Warn(format, args...)
}

// Error logs an error message to the default logger
func Error(format string, args ...interface{}) {
	DefaultLogger.Error(format, args...)
}

// Fatal logs a fatal message to the default logger and exits
func Fatal(format string, args ...interface{}) {
	DefaultLogger.Fatal(format, args...)
}
