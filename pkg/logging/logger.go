// Package logging is the structured logger of the module. Entries are
// single JSON lines with a fixed head (time, level, msg) followed by the
// entry's fields in the order they were given, pre-set fields first, so
// identical operations produce identical lines up to the timestamp.
// Field keys must not collide with the head keys.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of a log entry.
type Level int32

const (
	// DebugLevel traces per-node compiler steps.
	DebugLevel Level = iota
	// InfoLevel reports build, compile and solve outcomes.
	InfoLevel
	// WarnLevel reports recoverable oddities, e.g. non-optimal verdicts.
	WarnLevel
	// ErrorLevel reports failed operations.
	ErrorLevel
)

// String returns the level name as it appears in entries.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel reads a level name, case-insensitively. Unknown names fall
// back to InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DebugLevel
	case "INFO", "info":
		return InfoLevel
	case "WARN", "warn", "WARNING", "warning":
		return WarnLevel
	case "ERROR", "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one key-value pair of an entry.
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
	// With returns a child logger whose entries carry the given fields
	// before any call-site fields.
	With(fields ...Field) Logger
}

// sink serializes writes of all loggers sharing one destination.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *sink) writeLine(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Write(line)
	s.w.Write([]byte{'\n'})
}

// JSONLogger writes JSON line entries. Child loggers created by With
// share the parent's destination and level, so SetLevel on any of them
// reconfigures the whole family.
type JSONLogger struct {
	out    *sink
	level  *atomic.Int32
	now    func() time.Time
	fields []Field
}

// NewJSONLogger creates a logger writing to w, dropping entries below
// the given level.
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	l := &JSONLogger{
		out:   &sink{w: w},
		level: new(atomic.Int32),
		now:   time.Now,
	}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum level of this logger and all loggers
// derived from it.
func (l *JSONLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// GetLevel returns the current minimum level.
func (l *JSONLogger) GetLevel() Level {
	return Level(l.level.Load())
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// With returns a child carrying the given fields on every entry.
func (l *JSONLogger) With(fields ...Field) Logger {
	child := &JSONLogger{
		out:    l.out,
		level:  l.level,
		now:    l.now,
		fields: mergeFields(l.fields, fields),
	}
	return child
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if level < l.GetLevel() {
		return
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writePair(&buf, "time", l.now().UTC().Format(time.RFC3339Nano))
	buf.WriteByte(',')
	writePair(&buf, "level", level.String())
	buf.WriteByte(',')
	writePair(&buf, "msg", msg)
	for _, f := range mergeFields(l.fields, fields) {
		buf.WriteByte(',')
		writePair(&buf, f.Key, f.Value)
	}
	buf.WriteByte('}')

	l.out.writeLine(buf.Bytes())
}

// mergeFields concatenates base and extra, keeping each key once at its
// first position with its last value.
func mergeFields(base, extra []Field) []Field {
	merged := make([]Field, 0, len(base)+len(extra))
	at := make(map[string]int, len(base)+len(extra))
	for _, fs := range [2][]Field{base, extra} {
		for _, f := range fs {
			if i, ok := at[f.Key]; ok {
				merged[i] = f
				continue
			}
			at[f.Key] = len(merged)
			merged = append(merged, f)
		}
	}
	return merged
}

// writePair appends `"key":<json value>`. A value JSON cannot encode is
// stringified instead of poisoning the whole line.
func writePair(buf *bytes.Buffer, key string, value any) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	v, err := json.Marshal(value)
	if err != nil {
		v, _ = json.Marshal(fmt.Sprint(value))
	}
	buf.Write(v)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }

// NewNopLogger returns a logger that discards all entries.
func NewNopLogger() Logger {
	return NopLogger{}
}

// loggerBox keeps atomic.Value happy across different Logger types.
type loggerBox struct{ l Logger }

var defaultLogger atomic.Value

// DefaultLogger returns the process-wide logger: JSON to stderr, level
// from FLUXOPT_LOG_LEVEL, InfoLevel when unset. Diagnostics stay on
// stderr so example programs keep stdout for their own output.
func DefaultLogger() Logger {
	if b, ok := defaultLogger.Load().(loggerBox); ok {
		return b.l
	}
	defaultLogger.CompareAndSwap(nil,
		loggerBox{NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("FLUXOPT_LOG_LEVEL")))})
	return defaultLogger.Load().(loggerBox).l
}

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(l Logger) {
	defaultLogger.Store(loggerBox{l})
}
