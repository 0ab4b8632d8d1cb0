package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// Level names a severity. Entries below a logger's minimum are dropped.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a case-insensitive level name to a Level. Unknown or empty
// names report false.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	default:
		return "", false
	}
}

// Field is rendered as key=value inside the fields=[...] block.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is what the CLI writes diagnostics through. The patch core never
// sees one.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
}

// NoOpLogger satisfies Logger and writes nothing.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...Field)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...Field) {}
func (n *NoOpLogger) WithFields(_ ...Field) Logger                           { return n }

// StdLogger formats each entry as a single line:
//
//	[2024-01-02T15:04:05Z] [WARN] [error="..."] message fields=[k=v run_id=...]
type StdLogger struct {
	fields   []Field
	minLevel Level
	logger   *log.Logger
	now      func() time.Time
}

// NewStdLogger returns a StdLogger writing to writer (io.Discard when nil).
// An unrecognised minLevel falls back to INFO.
func NewStdLogger(minLevel Level, writer io.Writer) *StdLogger {
	if writer == nil {
		writer = io.Discard
	}
	if _, ok := levelRank[minLevel]; !ok {
		minLevel = LevelInfo
	}
	return &StdLogger{
		minLevel: minLevel,
		logger:   log.New(writer, "", 0),
		now:      time.Now,
	}
}

func (s *StdLogger) log(ctx context.Context, level Level, msg string, err error, fields ...Field) {
	if levelRank[level] < levelRank[s.minLevel] {
		return
	}

	all := make([]Field, 0, len(s.fields)+len(fields)+1)
	all = append(all, s.fields...)
	all = append(all, fields...)
	if runID := RunID(ctx); runID != "" {
		all = append(all, F("run_id", runID))
	}

	parts := []string{
		fmt.Sprintf("[%s]", s.now().Format(time.RFC3339)),
		fmt.Sprintf("[%s]", level),
	}
	if err != nil {
		parts = append(parts, fmt.Sprintf("[error=%q]", err.Error()))
	}
	parts = append(parts, msg)

	if len(all) > 0 {
		fieldParts := make([]string, 0, len(all))
		for _, f := range all {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		parts = append(parts, fmt.Sprintf("fields=[%s]", strings.Join(fieldParts, " ")))
	}

	s.logger.Println(strings.Join(parts, " "))
}

func (s *StdLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, LevelDebug, msg, nil, fields...)
}

func (s *StdLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, LevelInfo, msg, nil, fields...)
}

func (s *StdLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.log(ctx, LevelWarn, msg, nil, fields...)
}

func (s *StdLogger) Error(ctx context.Context, msg string, err error, fields ...Field) {
	s.log(ctx, LevelError, msg, err, fields...)
}

func (s *StdLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	merged = append(merged, fields...)
	return &StdLogger{
		fields:   merged,
		minLevel: s.minLevel,
		logger:   s.logger,
		now:      s.now,
	}
}

type runIDKey struct{}

// WithRunID stores runID in ctx; StdLogger appends it to every entry.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the ID stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewRunID returns the current time in nanoseconds, base 36.
func NewRunID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
