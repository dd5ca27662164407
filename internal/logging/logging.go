// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the slog logger shared by every command.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// Rotation defaults for the log file.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// ParseLevel maps debug, warn and error to their slog levels. Anything else
// is info.
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

// New returns a text logger writing to stderr, or to a rotating file when
// cfg.File is set. The returned closer releases the file and is a no-op
// for stderr.
func New(cfg types.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.File == "" {
		if stderr == nil {
			stderr = os.Stderr
		}
		return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
	}
	return slog.New(slog.NewTextHandler(lj, opts)), lj, nil
}

// WithRun tags logger with a fresh run id and the command name.
func WithRun(logger *slog.Logger, command string) *slog.Logger {
	return logger.With("run_id", uuid.NewString(), "command", command)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
