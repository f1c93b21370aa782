// filepath: internal/services/tag_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"
)

var _ TagService = (*tagService)(nil)

// tagService handles the tag vocabulary and the tag sets of items.
type tagService struct {
	Repo    *repository.Repository
	Auditor Auditor
}

// NewTagService creates a new TagService.
func NewTagService(repo *repository.Repository, auditor Auditor) *tagService {
	return &tagService{
		Repo:    repo,
		Auditor: auditor,
	}
}

// UpdateItemTags replaces the tags of an item with the dependency closure of
// names. Names that cannot be resolved are skipped and reported in the result;
// the returned error then wraps shared.ErrPartialFailure while the result
// still describes the links that were written.
func (s *tagService) UpdateItemTags(ctx context.Context, itemID int64, names []string) (*models.TagUpdateResult, error) {
	if _, err := s.Repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	var failed []models.TagFailure
	roots := make([]int64, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := s.resolveName(ctx, name)
		if err != nil {
			logging.Log.Warnf("UpdateItemTags: skipping tag %q for item %d: %v", name, itemID, err)
			failed = append(failed, models.TagFailure{Name: name, Err: err})
			continue
		}
		roots = append(roots, tag.ID)
	}

	result, err := s.Repo.ReplaceItemTags(ctx, itemID, roots)
	if err != nil {
		return nil, err
	}
	result.Failed = failed

	s.Auditor.Log(ctx, "item.tags", "system", fmt.Sprintf("Item:%d", itemID), map[string]interface{}{
		"added":   len(result.Added),
		"removed": len(result.Removed),
		"failed":  len(result.Failed),
	})
	return result, result.Err()
}

// resolveName finds or creates the tag and follows its alias chain.
func (s *tagService) resolveName(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := s.Repo.FindOrCreateTag(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Repo.ResolveTag(ctx, tag)
}

// ListUsage returns every tag with the number of items linked to it.
func (s *tagService) ListUsage(ctx context.Context) ([]models.TagUsage, error) {
	return s.Repo.CountUsage(ctx)
}

// GetDependencies returns the direct dependencies of the named tag.
func (s *tagService) GetDependencies(ctx context.Context, name string) ([]models.Tag, error) {
	tag, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetDependencies(ctx, tag.ID)
}

// SetDependencies replaces the dependencies of the named tag.
func (s *tagService) SetDependencies(ctx context.Context, name string, deps []string) error {
	tag, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Repo.SetDependencies(ctx, tag.ID, deps); err != nil {
		return err
	}
	s.Auditor.Log(ctx, "tag.dependencies", "system", "Tag:"+tag.Name, map[string]interface{}{"deps": deps})
	return nil
}

// UpdateTag renames the named tag and replaces its dependencies in one step.
func (s *tagService) UpdateTag(ctx context.Context, name, newName string, deps []string) (*models.Tag, error) {
	tag, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	updated, err := s.Repo.UpdateTag(ctx, tag.ID, newName, deps)
	if err != nil {
		return nil, err
	}
	s.Auditor.Log(ctx, "tag.update", "system", "Tag:"+tag.Name, map[string]interface{}{"name": updated.Name, "deps": deps})
	return updated, nil
}

// SetAlias points the named tag at target. An empty target clears the alias.
func (s *tagService) SetAlias(ctx context.Context, name, target string) error {
	tag, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Repo.SetAlias(ctx, tag.ID, target); err != nil {
		return err
	}
	s.Auditor.Log(ctx, "tag.alias", "system", "Tag:"+tag.Name, map[string]interface{}{"target": target})
	return nil
}

// DeleteTag removes the named tag with its links and dependency edges.
func (s *tagService) DeleteTag(ctx context.Context, name string) error {
	tag, err := s.lookup(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteTag(ctx, tag.ID); err != nil {
		return err
	}
	s.Auditor.Log(ctx, "tag.delete", "system", "Tag:"+tag.Name, nil)
	return nil
}

func (s *tagService) lookup(ctx context.Context, name string) (*models.Tag, error) {
	return s.Repo.GetTagByName(ctx, name)
}
