// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-sync/pkg/types"
)

func TestDirectory_Items(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.pdf", "alpha.txt", ".DS_Store"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "inner.txt"), []byte("x"), 0o644))

	mtime := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "alpha.txt"), mtime, mtime))

	d := NewDirectory(types.DirectoryConfig{Dir: dir, KeyPrefix: "kb"}, nil)
	items := collect(t, d)

	require.Len(t, items, 2)
	assert.Equal(t, "kb_alpha.txt", items[0].Key)
	assert.Equal(t, "alpha.txt", items[0].DisplayName)
	assert.Equal(t, filepath.Join(dir, "alpha.txt"), items[0].Path)
	assert.Equal(t, mtime, items[0].SourceUpdatedAt)
	assert.Equal(t, "kb_zeta.pdf", items[1].Key)
}

func TestDirectory_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"kb", "kb_faq.pdf"},
		{"manual_", "manual_faq.pdf"},
		{"", "faq.pdf"},
	}
	for _, tt := range tests {
		t.Run("prefix="+tt.prefix, func(t *testing.T) {
			d := NewDirectory(types.DirectoryConfig{Dir: ".", KeyPrefix: tt.prefix}, nil)
			assert.Equal(t, tt.want, d.Key("faq.pdf"))
		})
	}
}

func TestDirectory_Missing(t *testing.T) {
	d := NewDirectory(types.DirectoryConfig{Dir: filepath.Join(t.TempDir(), "manuals")}, nil)

	_, err := d.Items(context.Background())
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "directory", nf.Kind)
}

func TestDirectory_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewDirectory(types.DirectoryConfig{Dir: path}, nil).Items(context.Background())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDirectory_Empty(t *testing.T) {
	items := collect(t, NewDirectory(types.DirectoryConfig{Dir: t.TempDir(), KeyPrefix: "kb"}, nil))
	assert.Empty(t, items)
}
