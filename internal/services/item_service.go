// filepath: internal/services/item_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"
)

var _ ItemService = (*itemService)(nil)

// itemService coordinates item rows with their files on disk.
type itemService struct {
	Repo    *repository.Repository
	Storage Storage
	Auditor Auditor
}

// NewItemService creates a new ItemService.
func NewItemService(repo *repository.Repository, storage Storage, auditor Auditor) *itemService {
	return &itemService{
		Repo:    repo,
		Storage: storage,
		Auditor: auditor,
	}
}

// Insert stores a new item row.
func (s *itemService) Insert(ctx context.Context, item *models.Item) (*models.Item, error) {
	created, err := s.Repo.InsertItem(ctx, item)
	if err != nil {
		return nil, err
	}
	s.Auditor.Log(ctx, "item.create", "system", fmt.Sprintf("Item:%d", created.ID), map[string]interface{}{"path": created.Path})
	return created, nil
}

// Folders returns every folder, the possible destinations of a move.
func (s *itemService) Folders(ctx context.Context) ([]models.Item, error) {
	return s.Repo.ListFolders(ctx)
}

// Move relocates an item under newParentID (nil for the library root).
// The backing file moves first; if that fails nothing is recorded. A thumbnail
// that cannot follow is reported in the result without blocking the move.
// If the row update fails, the file is moved back.
func (s *itemService) Move(ctx context.Context, id int64, newParentID *int64, newName string) (*models.MoveResult, error) {
	// 1. Validate and compute the destination
	plan, err := s.Repo.PlanMove(ctx, id, newParentID)
	if err != nil {
		return nil, err
	}
	oldPath := plan.Item.Path
	result := &models.MoveResult{OldPath: oldPath}

	if plan.NewPath == oldPath {
		item, err := s.Repo.ApplyMove(ctx, plan, newName)
		if err != nil {
			return nil, err
		}
		result.Item = item
		return result, nil
	}

	// 2. Move the backing file
	if err := s.Storage.MoveItemFile(oldPath, plan.NewPath); err != nil {
		logging.Log.Errorf("Move: failed to move item %d from %s to %s: %v", id, oldPath, plan.NewPath, err)
		return nil, err
	}

	// 3. Move the thumbnail, best effort
	thumbErr := s.Storage.MoveThumbnail(oldPath, plan.NewPath)
	if thumbErr != nil {
		logging.Log.Warnf("Move: thumbnail of item %d did not follow: %v", id, thumbErr)
		result.ThumbnailErr = thumbErr
	}

	// 4. Record the new location
	item, err := s.Repo.ApplyMove(ctx, plan, newName)
	if err != nil {
		logging.Log.Errorf("Move: failed to record move of item %d, restoring files: %v", id, err)
		if rerr := s.Storage.MoveItemFile(plan.NewPath, oldPath); rerr != nil {
			logging.Log.Errorf("Move: could not restore %s to %s: %v", plan.NewPath, oldPath, rerr)
			return nil, errors.Join(err, fmt.Errorf("restore failed: %w", rerr))
		}
		if thumbErr == nil {
			if rerr := s.Storage.MoveThumbnail(plan.NewPath, oldPath); rerr != nil {
				logging.Log.Warnf("Move: could not restore thumbnail of item %d: %v", id, rerr)
			}
		}
		return nil, err
	}
	result.Item = item

	s.Auditor.Log(ctx, "item.move", "system", fmt.Sprintf("Item:%d", id), map[string]interface{}{
		"from": oldPath,
		"to":   item.Path,
	})
	return result, nil
}

// Delete removes an item with its whole subtree. Rows are deleted in one
// transaction; afterwards the files and thumbnails are removed deepest first.
// File failures are collected in the result and do not stop the cleanup.
func (s *itemService) Delete(ctx context.Context, id int64) (*models.DeleteResult, error) {
	deleted, err := s.Repo.DeleteItemTree(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &models.DeleteResult{Deleted: deleted, Count: len(deleted)}
	for _, d := range deleted {
		if err := s.Storage.RemoveItemFiles(d.Path); err != nil {
			logging.Log.Warnf("Delete: failed to remove files of item %d (%s): %v", d.ID, d.Path, err)
			result.FileErrors = append(result.FileErrors, err)
		}
	}

	s.Auditor.Log(ctx, "item.delete", "system", fmt.Sprintf("Item:%d", id), map[string]interface{}{
		"count":       result.Count,
		"file_errors": len(result.FileErrors),
	})
	return result, nil
}
