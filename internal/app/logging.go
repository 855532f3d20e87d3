package app

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) charm() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown names give
// LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger provides structured logging for the application. Messages take
// alternating key/value pairs.
type Logger struct {
	l        *log.Logger
	disabled *atomic.Bool
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to all log messages.
	Prefix string
	// JSON switches to one JSON object per line.
	JSON bool
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Prefix: "glyphterm",
	}
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := log.Options{
		Level:           cfg.Level.charm(),
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02T15:04:05.000",
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	return &Logger{
		l:        log.NewWithOptions(cfg.Output, opts),
		disabled: new(atomic.Bool),
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{l: l.l.With(key, value), disabled: l.disabled}
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	kv := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{l: l.l.With(kv...), disabled: l.disabled}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.l.SetLevel(level.charm())
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.l.SetOutput(w)
}

// Disable disables all logging, including loggers derived from l.
func (l *Logger) Disable() {
	l.disabled.Store(true)
}

// Enable enables logging.
func (l *Logger) Enable() {
	l.disabled.Store(false)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if !l.disabled.Load() {
		l.l.Debug(msg, keyvals...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, keyvals ...any) {
	if !l.disabled.Load() {
		l.l.Info(msg, keyvals...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...any) {
	if !l.disabled.Load() {
		l.l.Warn(msg, keyvals...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...any) {
	if !l.disabled.Load() {
		l.l.Error(msg, keyvals...)
	}
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	l := NewLogger(LoggerConfig{Output: io.Discard})
	l.Disable()
	return l
}

var (
	appLogger     *Logger
	appLoggerOnce sync.Once
	appLoggerMu   sync.Mutex
)

// GetLogger returns the application logger.
// Creates a default logger on first call if not set.
func GetLogger() *Logger {
	appLoggerOnce.Do(func() {
		appLoggerMu.Lock()
		defer appLoggerMu.Unlock()
		if appLogger == nil {
			appLogger = NewLogger(DefaultLoggerConfig())
		}
	})
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	return appLogger
}

// SetLogger sets the application-wide logger.
// Should be called early in application startup.
func SetLogger(l *Logger) {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	appLogger = l
}

// OpenLogOutput opens the configured log destination. "-" is stderr and
// an empty path discards output. The parent directory of a log file is
// created when missing.
func OpenLogOutput(path string) (io.WriteCloser, error) {
	switch path {
	case "":
		return nopCloser{io.Discard}, nil
	case "-":
		return nopCloser{os.Stderr}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
