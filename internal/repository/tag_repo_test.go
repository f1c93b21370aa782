package repository

import (
	"context"
	"strings"
	"sync"
	"testing"

	"mediashelf/internal/models"
	"mediashelf/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateTag(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.FindOrCreateTag(ctx, "  Cat ")
	require.NoError(t, err)
	assert.Equal(t, "cat", first.Name)
	assert.NotZero(t, first.CreatedAt)

	again, err := repo.FindOrCreateTag(ctx, "CAT")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	repo.Cache.Flush()
	uncached, err := repo.FindOrCreateTag(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, first.ID, uncached.ID)

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestFindOrCreateTag_Validation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.FindOrCreateTag(ctx, "   ")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = repo.FindOrCreateTag(ctx, strings.Repeat("x", models.MaxTagNameLength+1))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = repo.FindOrCreateTag(ctx, strings.Repeat("x", models.MaxTagNameLength))
	assert.NoError(t, err)
}

func TestFindOrCreateTag_Concurrent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := repo.FindOrCreateTag(ctx, "landscape")
			errs[i] = err
			if err == nil {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int
	require.NoError(t, repo.DB.QueryRow("SELECT COUNT(*) FROM tag WHERE name = 'landscape'").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSetDependencies(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cat, err := repo.FindOrCreateTag(ctx, "cat")
	require.NoError(t, err)

	t.Run("Creates missing tags and skips self", func(t *testing.T) {
		err := repo.SetDependencies(ctx, cat.ID, []string{"Animal", "Cat", "pet", "", "animal"})
		require.NoError(t, err)

		deps, err := repo.GetDependencies(ctx, cat.ID)
		require.NoError(t, err)
		names := []string{}
		for _, d := range deps {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{"animal", "pet"}, names)
	})

	t.Run("Diffs against the current edges", func(t *testing.T) {
		pet, err := repo.GetTagByName(ctx, "pet")
		require.NoError(t, err)
		var petEdgeID int64
		require.NoError(t, repo.DB.QueryRow("SELECT id FROM tag_dep WHERE tag = ? AND dep = ?", cat.ID, pet.ID).Scan(&petEdgeID))

		err = repo.SetDependencies(ctx, cat.ID, []string{"pet", "mammal"})
		require.NoError(t, err)

		deps, err := repo.GetDependencies(ctx, cat.ID)
		require.NoError(t, err)
		names := []string{}
		for _, d := range deps {
			names = append(names, d.Name)
		}
		assert.Equal(t, []string{"mammal", "pet"}, names)

		var unchangedID int64
		require.NoError(t, repo.DB.QueryRow("SELECT id FROM tag_dep WHERE tag = ? AND dep = ?", cat.ID, pet.ID).Scan(&unchangedID))
		assert.Equal(t, petEdgeID, unchangedID, "kept edges must not be rewritten")
	})

	t.Run("Unknown tag", func(t *testing.T) {
		err := repo.SetDependencies(ctx, 9999, []string{"x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSetDependencies_PropagatesToTaggedItems(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	item := insertTestItem(t, repo, nil, "kitten.jpg", models.FileTypeImage, 100)
	linkTestTags(t, repo, item.ID, "cat")
	cat, err := repo.GetTagByName(ctx, "cat")
	require.NoError(t, err)

	animal, err := repo.FindOrCreateTag(ctx, "animal")
	require.NoError(t, err)
	require.NoError(t, repo.SetDependencies(ctx, animal.ID, []string{"living"}))

	require.NoError(t, repo.SetDependencies(ctx, cat.ID, []string{"animal"}))

	assert.Equal(t, []string{"animal", "cat", "living"}, tagNames(t, repo, item.ID))
}

func TestUpdateTag(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	kitty, err := repo.FindOrCreateTag(ctx, "kitty")
	require.NoError(t, err)
	_, err = repo.FindOrCreateTag(ctx, "dog")
	require.NoError(t, err)

	updated, err := repo.UpdateTag(ctx, kitty.ID, "Kitten", []string{"animal"})
	require.NoError(t, err)
	assert.Equal(t, "kitten", updated.Name)

	deps, err := repo.GetDependencies(ctx, kitty.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "animal", deps[0].Name)

	_, err = repo.UpdateTag(ctx, kitty.ID, "dog", nil)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// the failed rename rolled back with its dependency change
	deps, err = repo.GetDependencies(ctx, kitty.ID)
	require.NoError(t, err)
	assert.Len(t, deps, 1)

	_, err = repo.UpdateTag(ctx, 4242, "ghost", nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteTag(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	item := insertTestItem(t, repo, nil, "photo.jpg", models.FileTypeImage, 1)
	cat, err := repo.FindOrCreateTag(ctx, "cat")
	require.NoError(t, err)
	require.NoError(t, repo.SetDependencies(ctx, cat.ID, []string{"animal"}))
	animal, err := repo.GetTagByName(ctx, "animal")
	require.NoError(t, err)
	lion, err := repo.FindOrCreateTag(ctx, "lion")
	require.NoError(t, err)
	require.NoError(t, repo.SetDependencies(ctx, lion.ID, []string{"cat"}))
	linkTestTags(t, repo, item.ID, "cat")

	require.NoError(t, repo.DeleteTag(ctx, cat.ID))

	_, err = repo.GetTag(ctx, cat.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, []string{"animal"}, tagNames(t, repo, item.ID))

	var edges int
	require.NoError(t, repo.DB.QueryRow("SELECT COUNT(*) FROM tag_dep WHERE tag = ? OR dep = ?", cat.ID, cat.ID).Scan(&edges))
	assert.Zero(t, edges)

	_, err = repo.GetTag(ctx, animal.ID)
	assert.NoError(t, err, "dependencies survive the deletion of their dependents")

	assert.ErrorIs(t, repo.DeleteTag(ctx, cat.ID), shared.ErrNotFound)
}

func TestSetAlias(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	kitty, err := repo.FindOrCreateTag(ctx, "kitty")
	require.NoError(t, err)

	require.NoError(t, repo.SetAlias(ctx, kitty.ID, "cat"))
	kitty, err = repo.GetTag(ctx, kitty.ID)
	require.NoError(t, err)
	require.NotNil(t, kitty.AliasOf)

	canonical, err := repo.ResolveTag(ctx, kitty)
	require.NoError(t, err)
	assert.Equal(t, "cat", canonical.Name)

	t.Run("Self alias rejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.SetAlias(ctx, kitty.ID, "kitty"), shared.ErrValidation)
	})

	t.Run("Alias cycle rejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.SetAlias(ctx, canonical.ID, "kitty"), shared.ErrValidation)
	})

	t.Run("Clear alias", func(t *testing.T) {
		require.NoError(t, repo.SetAlias(ctx, kitty.ID, ""))
		cleared, err := repo.GetTag(ctx, kitty.ID)
		require.NoError(t, err)
		assert.Nil(t, cleared.AliasOf)
	})

	t.Run("Existing links follow the target", func(t *testing.T) {
		item := insertTestItem(t, repo, nil, "pup.jpg", models.FileTypeImage, 1)
		linkTestTags(t, repo, item.ID, "puppy")
		puppy, err := repo.GetTagByName(ctx, "puppy")
		require.NoError(t, err)

		require.NoError(t, repo.SetAlias(ctx, puppy.ID, "dog"))

		assert.Equal(t, []string{"dog"}, tagNames(t, repo, item.ID))
		items, total, err := repo.FindByTagNames(ctx, []string{"puppy"}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, []int64{item.ID}, itemIDs(items))
	})

	t.Run("Existing edges follow the target", func(t *testing.T) {
		tabby, err := repo.FindOrCreateTag(ctx, "tabby")
		require.NoError(t, err)
		require.NoError(t, repo.SetDependencies(ctx, tabby.ID, []string{"feline"}))
		feline, err := repo.GetTagByName(ctx, "feline")
		require.NoError(t, err)
		item := insertTestItem(t, repo, nil, "tabby.jpg", models.FileTypeImage, 2)
		linkTestTags(t, repo, item.ID, "tabby")

		require.NoError(t, repo.SetAlias(ctx, feline.ID, "felid"))

		deps, err := repo.GetDependencies(ctx, tabby.ID)
		require.NoError(t, err)
		require.Len(t, deps, 1)
		assert.Equal(t, "felid", deps[0].Name)
		assert.ElementsMatch(t, []string{"felid", "tabby"}, tagNames(t, repo, item.ID))

		fresh := insertTestItem(t, repo, nil, "tabby2.jpg", models.FileTypeImage, 3)
		linkTestTags(t, repo, fresh.ID, "tabby")
		assert.ElementsMatch(t, []string{"felid", "tabby"}, tagNames(t, repo, fresh.ID))
	})

	t.Run("Edges onto the target are dropped", func(t *testing.T) {
		lion, err := repo.FindOrCreateTag(ctx, "lion")
		require.NoError(t, err)
		require.NoError(t, repo.SetDependencies(ctx, lion.ID, []string{"big-cat"}))

		require.NoError(t, repo.SetAlias(ctx, lion.ID, "big-cat"))

		bigCat, err := repo.GetTagByName(ctx, "big-cat")
		require.NoError(t, err)
		deps, err := repo.GetDependencies(ctx, bigCat.ID)
		require.NoError(t, err)
		assert.Empty(t, deps)
	})
}

func TestCountUsage(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a := insertTestItem(t, repo, nil, "a.jpg", models.FileTypeImage, 1)
	b := insertTestItem(t, repo, nil, "b.jpg", models.FileTypeImage, 2)
	linkTestTags(t, repo, a.ID, "cat", "dog")
	linkTestTags(t, repo, b.ID, "cat")
	_, err := repo.FindOrCreateTag(ctx, "unused")
	require.NoError(t, err)

	usage, err := repo.CountUsage(ctx)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, u := range usage {
		counts[u.Name] = u.Count
	}
	assert.Equal(t, map[string]int{"cat": 2, "dog": 1, "unused": 0}, counts)

	cat, err := repo.GetTagByName(ctx, "cat")
	require.NoError(t, err)
	subset, err := repo.UsageCounts(ctx, []int64{cat.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cat": 2}, subset)
}
