package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the application logger for the given environment.
// Local runs log human-readable text to stdout; dev and prod log JSON
// to stdout and, when logPath is writable, duplicate into a file.
func SetupLogger(env, logPath string) *slog.Logger {
	var out io.Writer = os.Stdout

	if env != envLocal && logPath != "" {
		file, err := os.OpenFile(
			filepath.Join(logPath, "helpdesk-bot.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
		)
		if err == nil {
			out = io.MultiWriter(os.Stdout, file)
		}
	}

	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	case envDev:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default:
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
}
