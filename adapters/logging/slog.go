package logging

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/elum-utils/moderator/interfaces"
)

// Slog adapts *slog.Logger to interfaces.Logger.
type Slog struct {
	logger *slog.Logger
}

var _ interfaces.Logger = (*Slog)(nil)

// NewSlog wraps logger. A nil logger uses slog.Default().
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

func (s *Slog) Debug(msg string, fields map[string]any) { s.log(slog.LevelDebug, msg, fields) }
func (s *Slog) Info(msg string, fields map[string]any)  { s.log(slog.LevelInfo, msg, fields) }
func (s *Slog) Warn(msg string, fields map[string]any)  { s.log(slog.LevelWarn, msg, fields) }
func (s *Slog) Error(msg string, fields map[string]any) { s.log(slog.LevelError, msg, fields) }

func (s *Slog) log(level slog.Level, msg string, fields map[string]any) {
	ctx := context.Background()
	if !s.logger.Enabled(ctx, level) {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

// ParseLevel maps error, warn, info and debug to slog levels. Anything else is info.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewJSON builds a JSON slog logger at the given level and installs it as default.
func NewJSON(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}
