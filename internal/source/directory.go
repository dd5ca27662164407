// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/kb-sync/pkg/types"
)

// Directory yields the regular files of one flat directory.
type Directory struct {
	dir    string
	prefix string
	logger *slog.Logger
}

// NewDirectory returns a Directory source for cfg.Dir. Keys are
// "<KeyPrefix>_<file name>", or the bare file name when KeyPrefix is empty.
func NewDirectory(cfg types.DirectoryConfig, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Directory{dir: cfg.Dir, prefix: cfg.KeyPrefix, logger: logger}
}

// Name returns "dir:<path>".
func (d *Directory) Name() string { return "dir:" + d.dir }

// Key returns the item key for a file name.
func (d *Directory) Key(name string) string {
	if d.prefix == "" {
		return name
	}
	return strings.TrimSuffix(d.prefix, "_") + "_" + name
}

// Items lists the directory once, sorted by file name. Subdirectories and
// dotfiles are skipped. A missing directory is a NotFoundError.
func (d *Directory) Items(ctx context.Context) (iter.Seq[types.ContentItem], error) {
	info, err := os.Stat(d.dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, &types.NotFoundError{Kind: "directory", Name: d.dir}
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", d.dir, err)
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", d.dir, err)
	}
	d.logger.Info("listed directory", "dir", d.dir, "entries", len(entries))

	return func(yield func(types.ContentItem) bool) {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			path := filepath.Join(d.dir, name)
			fi, err := os.Stat(path)
			if err != nil {
				d.logger.Warn("skipping unreadable file", "path", path, "reason", err.Error())
				continue
			}
			if !fi.Mode().IsRegular() {
				continue
			}
			item := types.ContentItem{
				Key:             d.Key(name),
				DisplayName:     name,
				Path:            path,
				SourceUpdatedAt: fi.ModTime().UTC().Truncate(time.Second),
			}
			if !yield(item) {
				return
			}
		}
	}, nil
}
