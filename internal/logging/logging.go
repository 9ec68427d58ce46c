// Package logging builds the server's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcoot/scoresnap/internal/config"
)

const logFileName = "scoresnap.log"

// New creates a logger writing to stdout, and additionally to a rotating
// file under cfg.Dir when set. The returned closer flushes the file.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	return newWithStdout(cfg, os.Stdout)
}

func newWithStdout(cfg config.LoggingConfig, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Level)
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return newLogger(stdout, cfg.Format, level, false), nopCloser{}, nil
	}

	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 || cfg.MaxAgeDays <= 0 {
		return nil, nil, fmt.Errorf(
			"invalid log rotation: size=%d backups=%d age_days=%d",
			cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays,
		)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	logger := newLogger(io.MultiWriter(stdout, file), cfg.Format, level, true)
	logger.Info("file logging enabled", slog.String("path", file.Filename))
	return logger, file, nil
}

func newLogger(w io.Writer, format string, level slog.Level, noColor bool) *slog.Logger {
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		AddSource:  true,
		NoColor:    noColor,
	}))
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
