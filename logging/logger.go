package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"restaurant-api/config"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with the service's default attributes.
//
// All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing JSON (default) or text records at the configured level.
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	return NewWithWriter(cfg, version, output)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "restaurant-api"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// ForServer builds the server logger. Without an explicit level it logs at
// debug in gin's debug mode, warn in test mode and info otherwise.
func ForServer(cfg *config.Config, version string) *Logger {
	logCfg := cfg.Logging
	if logCfg.Level == "" {
		logCfg.Level = levelForMode(cfg.Server.Mode)
	}
	return New(logCfg, version).With("gin_mode", cfg.Server.Mode)
}

func levelForMode(mode string) string {
	switch mode {
	case gin.DebugMode:
		return "debug"
	case gin.TestMode:
		return "warn"
	default:
		return "info"
	}
}

// RouteDebugger replaces gin's stdout route listing with debug records.
func (l *Logger) RouteDebugger() func(method, path, handler string, handlers int) {
	return func(method, path, handler string, handlers int) {
		l.Debug("route registered", "method", method, "path", path, "handler", handler, "middleware", handlers-1)
	}
}

// parseLevel maps debug, info, warn and error; anything else is info.
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

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Discard drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
