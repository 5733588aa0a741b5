package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
}

// toSlogLevel maps a LogLevel to slog, defaulting to info
func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConsoleWriter(level, os.Stderr)
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the given writer
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(toSlogLevel(level))
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	return newLogger(lv, consoleWriter)
}

func newLogger(leveler slog.Leveler, consoleWriter io.Writer) *Logger {
	// Console: plain, no time/level/msg labels
	consoleHandler := newPlainHandler(consoleWriter, leveler)

	// File: structured text with time and level
	fileHandler := newFileTextHandler(leveler)

	handler := newMultiHandler(consoleHandler, fileHandler)
	return &Logger{Logger: slog.New(handler)}
}

// NewDefaultLogger creates a logger with INFO level for general use
func NewDefaultLogger() *Logger {
	return NewLogger(LogLevelInfo)
}

// NewDebugLogger creates a logger with DEBUG level for development
func NewDebugLogger() *Logger {
	return NewLogger(LogLevelDebug)
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// WithSession creates a logger with session context for request tracing
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{
		Logger: l.With("session", sessionID),
	}
}

// LogWithIntention logs a message at the provided level with an intention tag.
// The console handler turns the intention into an icon; files keep it as an attribute.
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

// Warnings and errors do not carry intentions; intention is only for info/debug
func (l *Logger) WarnWithIntention(_ Intention, msg string, args ...any) {
	l.Warn(msg, args...)
}

func (l *Logger) ErrorWithIntention(_ Intention, msg string, args ...any) {
	l.Error(msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

// Process-wide level and console destination shared by Default and every
// component logger derived from it, so later reconfiguration reaches loggers
// created during package initialization.
var (
	globalLevel   = new(slog.LevelVar)
	globalConsole = &switchWriter{w: os.Stderr}
)

// Default logger instance - single instance for the entire application
var Default = newLogger(globalLevel, globalConsole)

// SetGlobalLogLevel updates the level of the default logger and all component loggers
func SetGlobalLogLevel(level LogLevel) {
	globalLevel.Set(toSlogLevel(level))
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// SetGlobalLoggerWithConsoleWriter reconfigures the default logger's level and console writer
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	SetGlobalLogLevel(level)
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	globalConsole.set(consoleWriter)
}

// switchWriter is an io.Writer whose destination can be replaced at runtime
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

var (
	logFileOnce sync.Once
	logFile     io.Writer
)

// LogFilePath returns ~/.gptchat/logs/gptchat.log
func LogFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gptchat", "logs", "gptchat.log")
}

// newFileTextHandler returns a slog text handler writing to the rotating log file
func newFileTextHandler(level slog.Leveler) slog.Handler {
	logFileOnce.Do(func() {
		path := LogFilePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return
		}
		logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	})

	if logFile == nil {
		// Fallback to stderr if the log directory cannot be created
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("15:04:05"))}
			}
			return a
		},
	}
	return slog.NewTextHandler(logFile, opts)
}
