// Package logger builds the process-wide slog logger based on the environment.
package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger returns a logger configured for the given environment.
// Local gets human-readable text on stdout at debug level; dev and prod
// write JSON to a log file in logDir, falling back to stdout.
func SetupLogger(env, logDir string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(logWriter(logDir), &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(logWriter(logDir), &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func logWriter(logDir string) io.Writer {
	path := filepath.Join(logDir, "ridedesk.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("cannot open log file %s: %v, logging to stdout", path, err)
		return os.Stdout
	}
	return file
}
