// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads the Freshdesk and OpenAI API keys that kb-sync keeps
// outside its config file. A key lives in a file under the secrets directory
// (default .secrets/) named after the key; the trimmed file body is its value.
// Keys set through flags, the config file, or KB_SYNC_* variables win over
// file values; see Resolve.
package secrets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// File names of the keys kb-sync reads.
const (
	FreshdeskAPIKey = "freshdesk-api-key"
	OpenAIAPIKey    = "openai-api-key"
)

// Load returns the non-empty key files in dir, keyed by file name. Hidden
// files and subdirectories are ignored. A missing dir yields an empty map, so
// a deployment that passes keys through the environment needs no directory.
// A file that cannot be read is logged and left out.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	keys := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		value, err := readKey(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("secret file unreadable", "file", name, "reason", err.Error())
			continue
		}
		if value != "" {
			keys[name] = value
		}
	}
	return keys, nil
}

func readKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Resolve returns explicit when it is set (from a flag, config file, or
// environment), otherwise the loaded secret for key.
func Resolve(loaded map[string]string, key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return loaded[key]
}
