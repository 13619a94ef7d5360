package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Brad-K99/EventCounterForRC/internal/infrastructure/config"
)

// serviceName is attached to every record as the "service" attribute.
const serviceName = "faultcount"

// Logger wraps slog.Logger with the faultcount default attributes.
// It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from cfg.
//
// Records are JSON unless cfg.Format is "text", and go to stderr unless
// cfg.Output is "stdout". Stdout carries the scan report, so stderr is the
// default. Every record carries service and version attributes.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, outputFor(cfg.Output))
}

// NewWithWriter is New with an explicit destination; cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

func outputFor(name string) io.Writer {
	if strings.EqualFold(name, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

// parseLevel maps debug, info, warn(ing) and error to slog levels.
// Anything else is info.
func parseLevel(level string) slog.Level {
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

// With returns a child Logger carrying args on every record, e.g.
//
//	logger.With("component", "scanner")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the text logger on stderr used before configuration is loaded.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text"}, "dev")
}
