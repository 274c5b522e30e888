package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/brandbot/internal/config"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
)

func TestNew_LocalStore(t *testing.T) {
	store, err := New(config.RemoteIndexConfig{Type: "Local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	_, err = New(config.RemoteIndexConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.RemoteIndexConfig{Type: "local"})
	require.Error(t, err)
}

func TestPushPull_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.hnsw"), []byte("graph"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.docs"), []byte("docs"), 0o644))
	names := []string{"index.hnsw", "index.docs"}
	require.NoError(t, Push(ctx, store, "/prod/", src, names))

	dst := filepath.Join(t.TempDir(), "pulled")
	require.NoError(t, Pull(ctx, store, "prod", dst, names))
	raw, err := os.ReadFile(filepath.Join(dst, "index.hnsw"))
	require.NoError(t, err)
	require.Equal(t, "graph", string(raw))
	raw, err = os.ReadFile(filepath.Join(dst, "index.docs"))
	require.NoError(t, err)
	require.Equal(t, "docs", string(raw))
}

func TestPull_MissingObjectKeepsExistingFiles(t *testing.T) {
	ctx := context.Background()
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.hnsw"), []byte("new"), 0o644))
	require.NoError(t, Push(ctx, store, "", src, []string{"index.hnsw"}))

	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "index.hnsw"), []byte("old"), 0o644))
	err = Pull(ctx, store, "", dst, []string{"index.hnsw", "index.docs"})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	raw, err := os.ReadFile(filepath.Join(dst, "index.hnsw"))
	require.NoError(t, err)
	require.Equal(t, "old", string(raw))
	_, err = os.Stat(filepath.Join(dst, "index.hnsw.pull"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := &localStore{dir: t.TempDir()}
	_, err := store.Get(context.Background(), "../secret")
	require.Error(t, err)
	require.NotErrorIs(t, err, appErr.ErrNotFound)
}
