package services

import (
	"context"
	"testing"

	"mediashelf/internal/config"
	"mediashelf/internal/shared"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	cfg := config.Default()
	cfg.Library.Root = testRoot
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRoot, 0755))
	return NewStorageService(cfg, fs)
}

func TestStorageService_Paths(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.AbsPath("trips/beach.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/lib/trips/beach.jpg", p)

	thumb, err := s.ThumbnailPath("trips/beach.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/lib/thumbnail/trips/beach.jpg.jpg", thumb)

	_, err = s.AbsPath("../../etc/passwd")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestStorageService_MoveThumbnail_Missing(t *testing.T) {
	s := newTestStorage(t)
	assert.NoError(t, s.MoveThumbnail("a.jpg", "b/a.jpg"), "an item without thumbnail moves cleanly")
}

func TestStorageService_RemoveItemFiles(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, afero.WriteFile(s.Fs, "/lib/a.jpg", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(s.Fs, "/lib/thumbnail/a.jpg.jpg", []byte("t"), 0644))

	require.NoError(t, s.RemoveItemFiles("a.jpg"))
	for _, p := range []string{"/lib/a.jpg", "/lib/thumbnail/a.jpg.jpg"} {
		exists, err := afero.Exists(s.Fs, p)
		require.NoError(t, err)
		assert.False(t, exists, p)
	}

	assert.NoError(t, s.RemoveItemFiles("a.jpg"), "removing twice is not an error")
}

func TestStorageService_Hash(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, afero.WriteFile(s.Fs, "/lib/a.jpg", []byte("a"), 0644))

	fileHash, err := s.Hash("a.jpg", false)
	require.NoError(t, err)
	dirHash, err := s.Hash("a.jpg", true)
	require.NoError(t, err)
	assert.NotEqual(t, fileHash, dirHash)

	_, err = s.Hash("missing.jpg", false)
	assert.ErrorIs(t, err, shared.ErrIO)
}

func TestStorageService_Scan_MissingRoot(t *testing.T) {
	cfg := config.Default()
	cfg.Library.Root = "/nowhere"
	s := NewStorageService(cfg, afero.NewMemMapFs())

	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, shared.ErrIO)
}
