// Package logging builds the slog loggers used by the confound pipeline.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// New returns a slog.Logger writing to stderr with the provided level string
// (debug, info, warn, error). format may be "json" or "text".
func New(level string, format string) *slog.Logger {
	return NewWriter(os.Stderr, level, format)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogScanStart logs the beginning of one scan's pipeline run.
func LogScanStart(logger *slog.Logger, scanID, runID string, frames, columns int) {
	logger.Info("scan started",
		"scan", scanID,
		"run_id", runID,
		"frames", frames,
		"columns", columns,
	)
}

// LogScanComplete logs a finished scan.
func LogScanComplete(logger *slog.Logger, scanID, runID string, duration time.Duration, frames, rank int) {
	logger.Info("scan completed",
		"scan", scanID,
		"run_id", runID,
		"frames", frames,
		"rank", rank,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogScanExcluded logs a scan dropped for having too few frames.
func LogScanExcluded(logger *slog.Logger, scanID, runID, reason string, retained, minimum int) {
	logger.Warn("scan excluded",
		"scan", scanID,
		"run_id", runID,
		"reason", reason,
		"retained", retained,
		"minimum", minimum,
	)
}

// LogScanError logs a scan that failed.
func LogScanError(logger *slog.Logger, scanID, runID string, duration time.Duration, err error) {
	logger.Error("scan failed",
		"scan", scanID,
		"run_id", runID,
		"duration_ms", duration.Milliseconds(),
		"error", err.Error(),
	)
}

// LogStage logs a pipeline state transition.
func LogStage(logger *slog.Logger, runID, stage string, attrs ...any) {
	logger.Debug("stage", append([]any{"run_id", runID, "stage", stage}, attrs...)...)
}
