package logger

import (
	"log/slog"
	"os"

	"github.com/evanofslack/m365-dns-verify/config"
	"github.com/lmittmann/tint"
)

// Configure installs the default slog handler: colorized tint output in
// dev, JSON otherwise. Logs go to stderr so stdout stays reserved for
// the verification report.
func Configure(cfg config.Log) {
	level := new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.Set(slog.LevelInfo)
	}

	w := os.Stderr
	var handler slog.Handler
	switch cfg.Env {
	case "dev", "development":
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
