// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, FreshdeskAPIKey, "  fd_abc123  \n")
				writeFile(t, dir, OpenAIAPIKey, "sk-xyz789\n")
				return dir
			},
			want: map[string]string{
				FreshdeskAPIKey: "fd_abc123",
				OpenAIAPIKey:    "sk-xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIAPIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				OpenAIAPIKey: "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, FreshdeskAPIKey, "pk_real")
				return dir
			},
			want: map[string]string{
				FreshdeskAPIKey: "pk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIAPIKey, "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				OpenAIAPIKey: "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, OpenAIAPIKey, "sk-123")

	badPath := filepath.Join(dir, FreshdeskAPIKey)
	require.NoError(t, os.WriteFile(badPath, []byte("fd-secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var logs bytes.Buffer
	got, err := Load(dir, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{OpenAIAPIKey: "sk-123"}, got)
	assert.Contains(t, logs.String(), "secret file unreadable")
	assert.Contains(t, logs.String(), "file="+FreshdeskAPIKey)
	assert.NotContains(t, logs.String(), "fd-secret")
}

func TestLoadNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets")
	writeFile(t, filepath.Dir(path), "secrets", "not a directory")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolve(t *testing.T) {
	loaded := map[string]string{OpenAIAPIKey: "sk-from-file"}

	assert.Equal(t, "sk-from-env", Resolve(loaded, OpenAIAPIKey, "sk-from-env"))
	assert.Equal(t, "sk-from-file", Resolve(loaded, OpenAIAPIKey, ""))
	assert.Empty(t, Resolve(loaded, FreshdeskAPIKey, ""))
	assert.Empty(t, Resolve(nil, FreshdeskAPIKey, ""))
}
