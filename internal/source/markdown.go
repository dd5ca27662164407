// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var unsafeFilenameChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "[", "_", "]", "_",
)

// SanitizeFilename replaces path-unsafe characters in name with underscores.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.Replace(name)
}

// RenderMarkdown formats an article as a Markdown document.
func RenderMarkdown(title, description string) []byte {
	return []byte("# " + title + "\n\n" + description)
}

// WriteMarkdown writes the article to dir/<sanitized title>.md through a
// temporary file and a rename, and returns the final path. An existing file
// with the same name is replaced.
func WriteMarkdown(dir, title, description string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	destPath := filepath.Join(dir, SanitizeFilename(title)+".md")

	tmpFile, err := os.CreateTemp(dir, ".article-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(RenderMarkdown(title, description))
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", destPath, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}
