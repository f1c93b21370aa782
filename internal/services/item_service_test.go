package services

import (
	"context"
	"errors"
	"testing"

	"mediashelf/internal/models"
	"mediashelf/internal/shared"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookStorage runs afterMove once the backing file of an item has moved.
type hookStorage struct {
	*StorageService
	afterMove func()
}

func (h *hookStorage) MoveItemFile(oldRel, newRel string) error {
	if err := h.StorageService.MoveItemFile(oldRel, newRel); err != nil {
		return err
	}
	if h.afterMove != nil {
		fn := h.afterMove
		h.afterMove = nil
		fn()
	}
	return nil
}

func TestItemService_Move(t *testing.T) {
	env := setupIntegrationTest(t)
	svc := NewItemService(env.Repo, env.Storage, nopAuditor{})
	ctx := context.Background()

	trips := env.insert(t, "trips", models.FileTypeFolder, 1)
	env.insert(t, "trips/beach.jpg", models.FileTypeImage, 2)
	archive := env.insert(t, "archive", models.FileTypeFolder, 3)
	env.writeFile(t, "thumbnail/trips.jpg", "thumb")
	env.writeFile(t, "thumbnail/trips/beach.jpg.jpg", "thumb")

	result, err := svc.Move(ctx, trips.ID, &archive.ID, "Trips")
	require.NoError(t, err)
	assert.NoError(t, result.ThumbnailErr)
	assert.Equal(t, "trips", result.OldPath)
	assert.Equal(t, "archive/trips", result.Item.Path)
	assert.Equal(t, "Trips", result.Item.Name)

	assert.True(t, env.exists(t, "archive/trips/beach.jpg"))
	assert.False(t, env.exists(t, "trips"))
	assert.True(t, env.exists(t, "thumbnail/archive/trips.jpg"))
	assert.True(t, env.exists(t, "thumbnail/archive/trips/beach.jpg.jpg"))

	child, err := env.Repo.GetItemByPath(ctx, "archive/trips/beach.jpg")
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, trips.ID, *child.ParentID)
}

func TestItemService_Move_FileFailureLeavesRow(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	photo := env.insert(t, "photo.jpg", models.FileTypeImage, 1)
	folder := env.insert(t, "folder", models.FileTypeFolder, 2)

	t.Run("Read only filesystem", func(t *testing.T) {
		ro := NewStorageService(env.Cfg, afero.NewReadOnlyFs(env.Fs))
		svc := NewItemService(env.Repo, ro, nopAuditor{})

		_, err := svc.Move(ctx, photo.ID, &folder.ID, "")
		assert.ErrorIs(t, err, shared.ErrIO)

		stored, err := env.Repo.GetItem(ctx, photo.ID)
		require.NoError(t, err)
		assert.Equal(t, "photo.jpg", stored.Path)
		assert.Nil(t, stored.ParentID)
		assert.True(t, env.exists(t, "photo.jpg"))
	})

	t.Run("Backing file missing", func(t *testing.T) {
		require.NoError(t, env.Fs.Remove("/lib/photo.jpg"))
		svc := NewItemService(env.Repo, env.Storage, nopAuditor{})

		_, err := svc.Move(ctx, photo.ID, &folder.ID, "")
		assert.ErrorIs(t, err, shared.ErrIO)

		stored, err := env.Repo.GetItem(ctx, photo.ID)
		require.NoError(t, err)
		assert.Equal(t, "photo.jpg", stored.Path)
	})
}

func TestItemService_Move_ThumbnailFailureIsReported(t *testing.T) {
	env := setupIntegrationTest(t)
	svc := NewItemService(env.Repo, env.Storage, nopAuditor{})
	ctx := context.Background()

	photo := env.insert(t, "photo.jpg", models.FileTypeImage, 1)
	folder := env.insert(t, "folder", models.FileTypeFolder, 2)
	env.writeFile(t, "thumbnail/photo.jpg.jpg", "old")
	// a stale thumbnail blocks the destination
	env.writeFile(t, "thumbnail/folder/photo.jpg.jpg", "stale")

	result, err := svc.Move(ctx, photo.ID, &folder.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, result.ThumbnailErr, shared.ErrIO)
	assert.Equal(t, "folder/photo.jpg", result.Item.Path)
	assert.True(t, env.exists(t, "folder/photo.jpg"))
}

func TestItemService_Move_CompensatesFailedUpdate(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	photo := env.insert(t, "photo.jpg", models.FileTypeImage, 1)
	folder := env.insert(t, "folder", models.FileTypeFolder, 2)
	env.writeFile(t, "thumbnail/photo.jpg.jpg", "thumb")

	hooked := &hookStorage{StorageService: env.Storage}
	hooked.afterMove = func() {
		// a concurrent writer changes the row between plan and update
		_, err := env.Repo.DB.Exec("UPDATE item SET path = 'renamed.jpg' WHERE id = ?", photo.ID)
		require.NoError(t, err)
	}
	svc := NewItemService(env.Repo, hooked, nopAuditor{})

	_, err := svc.Move(ctx, photo.ID, &folder.ID, "")
	assert.ErrorIs(t, err, shared.ErrConflict)

	assert.True(t, env.exists(t, "photo.jpg"), "file is moved back")
	assert.False(t, env.exists(t, "folder/photo.jpg"))
	assert.True(t, env.exists(t, "thumbnail/photo.jpg.jpg"), "thumbnail is moved back")
}

func TestItemService_Move_Validation(t *testing.T) {
	env := setupIntegrationTest(t)
	svc := NewItemService(env.Repo, env.Storage, nopAuditor{})
	ctx := context.Background()

	parent := env.insert(t, "parent", models.FileTypeFolder, 1)
	child := env.insert(t, "parent/child", models.FileTypeFolder, 2)
	file := env.insert(t, "file.jpg", models.FileTypeImage, 3)

	_, err := svc.Move(ctx, parent.ID, &child.ID, "")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Move(ctx, parent.ID, &file.ID, "")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Move(ctx, 999, nil, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.True(t, env.exists(t, "parent/child"))
}

func TestItemService_Delete(t *testing.T) {
	env := setupIntegrationTest(t)
	svc := NewItemService(env.Repo, env.Storage, nopAuditor{})
	ctx := context.Background()

	f := env.insert(t, "F", models.FileTypeFolder, 1)
	c1 := env.insert(t, "F/C1.jpg", models.FileTypeImage, 2)
	env.insert(t, "F/C2", models.FileTypeFolder, 3)
	c21 := env.insert(t, "F/C2/C2.1.jpg", models.FileTypeImage, 4)
	env.writeFile(t, "thumbnail/F/C2/C2.1.jpg.jpg", "thumb")
	env.writeFile(t, "thumbnail/F.jpg", "thumb")
	// one backing file is already gone
	require.NoError(t, env.Fs.Remove("/lib/F/C1.jpg"))

	result, err := svc.Delete(ctx, f.ID)
	require.NoError(t, err)
	assert.NoError(t, result.Err())
	assert.Equal(t, 4, result.Count)
	assert.Equal(t, c21.ID, result.Deleted[0].ID)

	for _, rel := range []string{"F", "F/C2/C2.1.jpg", "thumbnail/F.jpg", "thumbnail/F"} {
		assert.False(t, env.exists(t, rel), rel)
	}
	for _, id := range []int64{f.ID, c1.ID, c21.ID} {
		_, err := env.Repo.GetItem(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	}

	_, err = svc.Delete(ctx, f.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestItemService_Delete_FileErrorsAreCollected(t *testing.T) {
	env := setupIntegrationTest(t)
	ctx := context.Background()

	f := env.insert(t, "F", models.FileTypeFolder, 1)
	env.insert(t, "F/a.jpg", models.FileTypeImage, 2)
	env.insert(t, "F/b.jpg", models.FileTypeImage, 3)

	ro := NewStorageService(env.Cfg, afero.NewReadOnlyFs(env.Fs))
	svc := NewItemService(env.Repo, ro, nopAuditor{})

	result, err := svc.Delete(ctx, f.ID)
	require.NoError(t, err, "rows are deleted even when files cannot be")
	assert.Equal(t, 3, result.Count)
	assert.Len(t, result.FileErrors, 3)
	assert.True(t, errors.Is(result.Err(), shared.ErrPartialFailure))

	_, err = env.Repo.GetItem(ctx, f.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
