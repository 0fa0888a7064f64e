// Package logging provides the structured JSON logger shared by the
// analysis engine, the importer and the HTTP layer. Every record is
// one JSON object per line with a fixed time/level/msg envelope and
// free-form fields.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level filters records by importance.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to its Level, case-insensitively.
// Unknown names fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DebugLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one key/value pair attached to a record. Constructors for
// the common keys live in logger_fields.go.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging interface the rest of the module depends on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that attaches the given fields to
	// every record it emits.
	With(fields ...Field) Logger
}

// JSONLogger writes one JSON object per record. Child loggers created
// with With share the parent's writer and lock, so a logger tree is
// safe for concurrent use on one stream.
type JSONLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	min    Level
	preset []Field
}

// NewJSONLogger returns a logger writing records at or above min to w.
func NewJSONLogger(w io.Writer, min Level) *JSONLogger {
	return &JSONLogger{mu: &sync.Mutex{}, w: w, min: min}
}

type record struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (l *JSONLogger) emit(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}
	rec := record{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if len(l.preset)+len(fields) > 0 {
		rec.Fields = make(map[string]any, len(l.preset)+len(fields))
		for _, f := range l.preset {
			rec.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			rec.Fields[f.Key] = f.Value
		}
	}
	line, err := json.Marshal(rec)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"time":%q,"level":"ERROR","msg":"unencodable log record"}`, rec.Time))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(line)
	l.w.Write([]byte("\n"))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fields) }

// With returns a child logger carrying the parent's fields plus the
// given ones.
func (l *JSONLogger) With(fields ...Field) Logger {
	preset := make([]Field, 0, len(l.preset)+len(fields))
	preset = append(preset, l.preset...)
	preset = append(preset, fields...)
	return &JSONLogger{mu: l.mu, w: l.w, min: l.min, preset: preset}
}

// NopLogger discards every record.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger { return NopLogger{} }

var (
	defaultMu     sync.Mutex
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger. Until SetDefaultLogger
// replaces it, it writes JSON to stdout at the level named by the
// LOG_LEVEL environment variable.
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewJSONLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger. The cmd binaries
// call it once at startup with their flag-configured logger.
func SetDefaultLogger(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
