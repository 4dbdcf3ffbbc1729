package monitoring

import (
	"log/slog"
	"os"
)

// SetupLogger installs a JSON slog handler as the process default.
func SetupLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
