package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/assets/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Upload(ctx, "tok-front.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "tok-front.png", key)

	data, err := os.ReadFile(filepath.Join(dir, "tok-front.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	assert.Equal(t, "/assets/tok-front.png", store.PublicURL(key))

	require.NoError(t, store.Remove(ctx, []string{"tok-front.png"}))
	_, err = os.Stat(filepath.Join(dir, "tok-front.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMissingKeyIsNoError(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/assets")
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), []string{"never-existed.png"}))
}

func TestUploadRejectsTraversalKeys(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/assets")
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.png", "a/b.png", ".hidden"} {
		_, err := store.Upload(context.Background(), key, strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}

func TestUploadOverwrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/assets")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upload(ctx, "k.png", strings.NewReader("old"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, "k.png", strings.NewReader("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "k.png"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
