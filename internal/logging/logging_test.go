// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-sync/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_Stderr(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(types.LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("delete failed", "key", "k1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "delete failed")
	assert.Contains(t, out, "key=k1")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kb-sync.log")
	logger, closer, err := New(types.LogConfig{Level: "debug", File: path}, nil)
	require.NoError(t, err)

	logger.Debug("fetched page", "page", 2)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetched page")
	assert.Contains(t, string(data), "page=2")
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRun(slog.New(slog.NewJSONHandler(&buf, nil)), "sync articles")
	logger.Info("start")

	out := buf.String()
	assert.Contains(t, out, `"command":"sync articles"`)
	require.Contains(t, out, `"run_id":"`)

	start := bytes.Index(buf.Bytes(), []byte(`"run_id":"`)) + len(`"run_id":"`)
	_, err := uuid.Parse(out[start : start+36])
	assert.NoError(t, err)
}
