package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// VerboseChecker interface for checking verbose state
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger provides structured logging with verbose support. Debug and Info
// are written only while the checker reports verbose; Warn and Error always are.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	sink           zapcore.WriteSyncer
	zl             *zap.Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger instance writing to stderr
func New(component string, verboseChecker VerboseChecker) *Logger {
	return NewWithWriter(component, verboseChecker, os.Stderr)
}

// NewWithCallback creates a new logger instance with a callback function
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// NewWithWriter creates a logger that writes to w
func NewWithWriter(component string, verboseChecker VerboseChecker, w io.Writer) *Logger {
	return build(component, verboseChecker, zapcore.AddSync(w))
}

func build(component string, verboseChecker VerboseChecker, sink zapcore.WriteSyncer) *Logger {
	if component == "" {
		component = "main"
	}
	l := &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		sink:           sink,
	}
	l.zl = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		sink,
		zap.LevelEnablerFunc(l.enabled),
	)).Named(component)
	return l
}

// encoderConfig renders "15:04:05.000 WARN component message {fields}"
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

func (l *Logger) enabled(lvl zapcore.Level) bool {
	if lvl >= zapcore.WarnLevel {
		return true
	}
	return l.IsVerbose()
}

// IsVerbose reports whether Debug and Info messages are currently written
func (l *Logger) IsVerbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return build(component, l.verboseChecker, l.sink)
}

// Sync flushes buffered output
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// callbackChecker implements VerboseChecker with a callback function
type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zl.Debug(format(msg, args))
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	l.zl.Info(format(msg, args))
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zl.Warn(format(msg, args))
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.zl.Error(format(msg, args))
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	l.zl.Debug(format(msg, args), zapFields(fields)...)
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	l.zl.Info(format(msg, args), zapFields(fields)...)
}

// WarnWithFields logs warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.zl.Warn(format(msg, args), zapFields(fields)...)
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		switch v := field.Value.(type) {
		case error:
			out = append(out, zap.NamedError(field.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(field.Key, v))
		default:
			out = append(out, zap.Any(field.Key, v))
		}
	}
	return out
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
