package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init builds the process logger and installs it as slog's default.
// Development: Text format with Debug level
// Production: JSON format with Info level
// Errors are additionally forwarded to Sentry when a DSN is configured.
func Init(isDev bool, sentryDSN string) {
	var sentryHandler slog.Handler
	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			sentryHandler = slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler()
		}
	}

	Log = New(os.Stdout, isDev, sentryHandler)
	slog.SetDefault(Log)
}

// New returns a logger writing to w, fanned out to extra handlers when given.
func New(w io.Writer, isDev bool, extra ...slog.Handler) *slog.Logger {
	var base slog.Handler
	if isDev {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	handlers := []slog.Handler{base}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}

	if len(handlers) == 1 {
		return slog.New(base)
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Flush waits for buffered Sentry events. Safe to call when Sentry is off.
func Flush() {
	sentry.Flush(2 * time.Second)
}
