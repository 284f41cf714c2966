package logging

import (
	"log/slog"
	"os"
	"sync"
)

var global *slog.Logger

// fallback serves callers that log before Init runs. Debug level so
// nothing is swallowed before configuration is loaded.
var fallback = sync.OnceValue(func() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
})

// Init builds the process-wide logger from the given options and
// installs it as the slog default.
func Init(opts Options) {
	global = SetupLogger(opts)
	slog.SetDefault(global)
}

// Logger returns the configured logger, or the stderr fallback when
// Init has not run yet.
func Logger() *slog.Logger {
	if global == nil {
		return fallback()
	}
	return global
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
