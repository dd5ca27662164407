// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-sync/pkg/types"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "attachments.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

var (
	t0 = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	t1 = time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
)

func TestGet_Missing(t *testing.T) {
	store, _ := openTestStore(t)

	rec, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, types.TrackedRecord{}, rec)
}

func TestUpsert_InsertThenOverwrite(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{
		Key: "k1", DisplayName: "First", CreatedAt: t0, UpdatedAt: t0, RemoteFileID: "file-a",
	}))
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{
		Key: "k1", DisplayName: "Renamed", CreatedAt: t0, UpdatedAt: t1, RemoteFileID: "file-b",
	}))

	rec, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Renamed", rec.DisplayName)
	assert.Equal(t, t0, rec.CreatedAt)
	assert.Equal(t, t1, rec.UpdatedAt)
	assert.Equal(t, "file-b", rec.RemoteFileID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsert_EmptyRemoteIDStoredAsNull(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	// Two records without a remote file must not collide on the UNIQUE column.
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{Key: "a", DisplayName: "A", UpdatedAt: t0}))
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{Key: "b", DisplayName: "B", UpdatedAt: t0}))

	rec, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, rec.HasRemoteFile())
	assert.True(t, rec.CreatedAt.IsZero())
}

func TestUpsert_DuplicateRemoteIDRejected(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{Key: "a", DisplayName: "A", RemoteFileID: "file-x"}))
	err := store.Upsert(ctx, types.TrackedRecord{Key: "b", DisplayName: "B", RemoteFileID: "file-x"})
	require.Error(t, err)

	var pe *types.PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, types.ErrPersistence)
}

func TestStore_DurableAcrossReopen(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{
		Key: "kb_faq.pdf", DisplayName: "faq.pdf", CreatedAt: t0, UpdatedAt: t1, RemoteFileID: "file-1",
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, ok, err := reopened.Get(ctx, "kb_faq.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "file-1", rec.RemoteFileID)
	assert.Equal(t, t1, rec.UpdatedAt)
}

func TestList_PrefixFilter(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	for _, k := range []string{"manual_b.pdf", "kb_z.txt", "kb_a.txt", "1001"} {
		require.NoError(t, store.Upsert(ctx, types.TrackedRecord{Key: k, DisplayName: k}))
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"1001", "kb_a.txt", "kb_z.txt", "manual_b.pdf"}},
		{"kb_", []string{"kb_a.txt", "kb_z.txt"}},
		{"manual_", []string{"manual_b.pdf"}},
		{"none_", nil},
	}
	for _, tt := range tests {
		t.Run("prefix="+tt.prefix, func(t *testing.T) {
			recs, err := store.List(ctx, tt.prefix)
			require.NoError(t, err)
			var keys []string
			for _, r := range recs {
				keys = append(keys, r.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestExport(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{
		Key: "kb_a.txt", DisplayName: "a.txt", CreatedAt: t0, UpdatedAt: t1, RemoteFileID: "file-a",
	}))
	require.NoError(t, store.Upsert(ctx, types.TrackedRecord{Key: "manual_b.pdf", DisplayName: "b.pdf"}))

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, store.ExportYAML(ctx, "", &buf))

		var got []ExportEntry
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "file-a", got[0].RemoteFileID)
		assert.Equal(t, "2025-03-01T09:30:00Z", got[0].CreatedAt)
		assert.Empty(t, got[1].RemoteFileID)
	})

	t.Run("json with prefix", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, store.ExportJSON(ctx, "manual_", &buf))

		var got []ExportEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "b.pdf", got[0].Title)
	})
}
