// Package observability provides structured logging and telemetry setup.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	tlog "go.temporal.io/sdk/log"
)

// ParseLevel maps RHYTHM_LOG_LEVEL values onto slog levels. Unknown values
// mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// InitLogger installs a JSON slog logger on stdout as the process default.
func InitLogger(level string) *slog.Logger {
	return InitLoggerTo(os.Stdout, level)
}

// InitLoggerTo is InitLogger writing to w. Stdio servers log to stderr.
func InitLoggerTo(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

// TemporalSlogAdapter routes Temporal client logs through slog, tagged with
// component=temporal.
type TemporalSlogAdapter struct {
	logger *slog.Logger
}

// NewTemporalSlogAdapter creates a Temporal log adapter from a slog.Logger.
func NewTemporalSlogAdapter(logger *slog.Logger) *TemporalSlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemporalSlogAdapter{logger: logger.With("component", "temporal")}
}

func (a *TemporalSlogAdapter) Debug(msg string, keyvals ...any) { a.logger.Debug(msg, keyvals...) }
func (a *TemporalSlogAdapter) Info(msg string, keyvals ...any)  { a.logger.Info(msg, keyvals...) }
func (a *TemporalSlogAdapter) Warn(msg string, keyvals ...any)  { a.logger.Warn(msg, keyvals...) }
func (a *TemporalSlogAdapter) Error(msg string, keyvals ...any) { a.logger.Error(msg, keyvals...) }

// With returns an adapter that adds keyvals to every record.
func (a *TemporalSlogAdapter) With(keyvals ...any) tlog.Logger {
	return &TemporalSlogAdapter{logger: a.logger.With(keyvals...)}
}

var (
	_ tlog.Logger     = (*TemporalSlogAdapter)(nil)
	_ tlog.WithLogger = (*TemporalSlogAdapter)(nil)
)
