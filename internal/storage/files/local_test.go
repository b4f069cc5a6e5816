package files

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/storage"
)

func newTestStore(t *testing.T, etags bool) *Local {
	t.Helper()
	store, err := NewLocal(Config{BaseDir: t.TempDir(), MaxFileSize: 1 << 20, GenerateETags: etags})
	require.NoError(t, err)
	return store
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	stored, err := store.Upload(ctx, "stories/abc/audio.mp3", []byte("voice"))
	require.NoError(t, err)
	require.Equal(t, "stories/abc/audio.mp3", stored)

	data, err := store.Download(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, []byte("voice"), data)
}

func TestDownloadMissing(t *testing.T) {
	store := newTestStore(t, false)
	_, err := store.Download(context.Background(), "absent.bin")
	require.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestDeleteAndExists(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()

	_, err := store.Upload(ctx, "a.txt", []byte("x"))
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "a.txt")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, store.Delete(ctx, "a.txt"))

	exists, err = store.Exists(ctx, "a.txt")
	require.NoError(t, err)
	require.False(t, exists)

	require.ErrorIs(t, store.Delete(ctx, "a.txt"), storage.ErrFileNotFound)
}

func TestUploadRejectsOversize(t *testing.T) {
	store, err := NewLocal(Config{BaseDir: t.TempDir(), MaxFileSize: 4})
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "big.bin", []byte("too large"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum size")
}

func TestUploadRejectsPathEscape(t *testing.T) {
	store := newTestStore(t, false)

	_, err := store.Upload(context.Background(), "../outside.txt", []byte("x"))
	require.Error(t, err)

	_, err = store.Upload(context.Background(), "", []byte("x"))
	require.Error(t, err)
}

func TestMetadata(t *testing.T) {
	store := newTestStore(t, true)
	ctx := context.Background()

	_, err := store.Upload(ctx, "media/photo.png", []byte("voice"))
	require.NoError(t, err)

	meta, err := store.Metadata(ctx, "media/photo.png")
	require.NoError(t, err)
	require.EqualValues(t, 5, meta.Size)
	require.False(t, meta.LastModified.IsZero())
	require.Equal(t, "image/png", meta.ContentType)
	require.Len(t, meta.ETag, 64)

	_, err = store.Metadata(ctx, "media/missing.mp3")
	require.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestMetadataWithoutETags(t *testing.T) {
	store := newTestStore(t, false)
	ctx := context.Background()

	_, err := store.Upload(ctx, "doc.txt", []byte("hi"))
	require.NoError(t, err)

	meta, err := store.Metadata(ctx, "doc.txt")
	require.NoError(t, err)
	require.Empty(t, meta.ETag)
}
