// Package logging wraps slog with the field names used across helix.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type Logger struct {
	*slog.Logger
}

// New wraps handler. A nil handler logs text to stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ForTerminal logs text when f is a terminal and JSON otherwise.
func ForTerminal(f *os.File, level slog.Level) *Logger {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewText(f, level)
	}
	return NewJSON(f, level)
}

// Noop discards everything.
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s))))
	return level, err
}

func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", runID)}
}

// LogGeneration records one generation at debug level.
func (l *Logger) LogGeneration(ctx context.Context, generation int, best float64, mean float64) {
	l.DebugContext(ctx, "generation evolved",
		"generation", generation,
		"best_loss", best,
		"mean_loss", mean,
	)
}

// LogRunFinished records the end of a run.
func (l *Logger) LogRunFinished(ctx context.Context, generations int, converged bool, finalLoss float64, err error) {
	if err != nil {
		l.WarnContext(ctx, "run stopped",
			"generations", generations,
			"final_loss", finalLoss,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run finished",
		"generations", generations,
		"converged", converged,
		"final_loss", finalLoss,
	)
}
