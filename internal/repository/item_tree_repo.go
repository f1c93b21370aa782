package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"mediashelf/internal/models"
	"mediashelf/internal/shared"

	"github.com/Masterminds/squirrel"
)

// MovePlan is a validated move of an item to a new parent.
type MovePlan struct {
	Item        models.Item
	NewParentID *int64
	NewPath     string
}

// PlanMove validates moving item id under newParentID and computes the
// destination path: the new parent's path joined with the item's basename.
// A nil newParentID moves the item to the library root.
func (s *Repository) PlanMove(ctx context.Context, id int64, newParentID *int64) (*MovePlan, error) {
	var plan *MovePlan
	err := s.withTx(ctx, func(tx *Tx) error {
		item, err := tx.getItem(ctx, id)
		if err != nil {
			return err
		}

		newPath := path.Base(item.Path)
		if newParentID != nil {
			parent, err := tx.getItem(ctx, *newParentID)
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("%w: destination %d does not exist", shared.ErrValidation, *newParentID)
			}
			if err != nil {
				return err
			}
			if !parent.IsFolder() {
				return fmt.Errorf("%w: destination %d is not a folder", shared.ErrValidation, parent.ID)
			}
			if err := tx.checkNotDescendant(ctx, id, parent); err != nil {
				return err
			}
			newPath = path.Join(parent.Path, newPath)
		}

		if newPath != item.Path {
			if existing, err := tx.getItemByPath(ctx, newPath); err == nil {
				return fmt.Errorf("%w: path %q already stored as item %d", shared.ErrConflict, newPath, existing.ID)
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		plan = &MovePlan{Item: *item, NewParentID: newParentID, NewPath: newPath}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// checkNotDescendant walks up from parent and fails if it reaches itemID.
func (tx *Tx) checkNotDescendant(ctx context.Context, itemID int64, parent *models.Item) error {
	visited := make(map[int64]struct{})
	current := parent
	for {
		if current.ID == itemID {
			return fmt.Errorf("%w: cannot move item %d into itself or one of its descendants", shared.ErrValidation, itemID)
		}
		if current.ParentID == nil {
			return nil
		}
		if _, seen := visited[current.ID]; seen {
			return fmt.Errorf("%w: parent chain of item %d loops", shared.ErrValidation, current.ID)
		}
		visited[current.ID] = struct{}{}

		next, err := tx.getItem(ctx, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
}

// ApplyMove stores a move whose file has already been relocated.
// It fails with shared.ErrConflict when the item changed since the plan was made.
// Descendants of a moved folder get their path prefix rewritten.
func (s *Repository) ApplyMove(ctx context.Context, plan *MovePlan, newName string) (*models.Item, error) {
	name := plan.Item.Name
	if strings.TrimSpace(newName) != "" {
		name = strings.TrimSpace(newName)
	}

	var moved *models.Item
	err := s.withTx(ctx, func(tx *Tx) error {
		query, args, err := tx.Builder.Update("item").
			Set("parent", plan.NewParentID).
			Set("path", plan.NewPath).
			Set("name", name).
			Where(squirrel.Eq{"id": plan.Item.ID, "path": plan.Item.Path}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: path %q is taken", shared.ErrConflict, plan.NewPath)
			}
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: item %d changed while moving", shared.ErrConflict, plan.Item.ID)
		}

		if plan.Item.IsFolder() && plan.NewPath != plan.Item.Path {
			if err := tx.rewriteDescendantPaths(ctx, &plan.Item, plan.NewPath); err != nil {
				return err
			}
		}

		moved, err = tx.getItem(ctx, plan.Item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// rewriteDescendantPaths replaces the oldRoot.Path prefix of every descendant with newPath.
func (tx *Tx) rewriteDescendantPaths(ctx context.Context, oldRoot *models.Item, newPath string) error {
	subtree, err := tx.collectSubtree(ctx, oldRoot)
	if err != nil {
		return err
	}
	oldPrefix := oldRoot.Path + "/"
	for _, d := range subtree[1:] {
		if !strings.HasPrefix(d.Path, oldPrefix) {
			return fmt.Errorf("item %d at %q is not below %q", d.ID, d.Path, oldRoot.Path)
		}
		query, args, err := tx.Builder.Update("item").
			Set("path", newPath+"/"+strings.TrimPrefix(d.Path, oldPrefix)).
			Where(squirrel.Eq{"id": d.ID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: descendant path of item %d is taken", shared.ErrConflict, d.ID)
			}
			return err
		}
	}
	return nil
}

// DeleteItemTree removes an item, every descendant and all their tag links in
// one transaction. The subtree is collected with an explicit queue; rows are
// removed deepest first so no child outlives its parent. The deleted items are
// returned deepest first for file cleanup.
func (s *Repository) DeleteItemTree(ctx context.Context, id int64) ([]models.DeletedItem, error) {
	var deleted []models.DeletedItem
	err := s.withTx(ctx, func(tx *Tx) error {
		root, err := tx.getItem(ctx, id)
		if err != nil {
			return err
		}
		order, err := tx.collectSubtree(ctx, root)
		if err != nil {
			return err
		}

		// reverse breadth-first order puts every child before its parent
		deleted = make([]models.DeletedItem, len(order))
		ids := make([]int64, len(order))
		for i, d := range order {
			deleted[len(order)-1-i] = d
			ids[len(order)-1-i] = d.ID
		}

		for _, chunk := range chunkIDs(ids, maxBatch) {
			query, args, err := tx.Builder.Delete("item_tag").Where(squirrel.Eq{"item": chunk}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete tag links: %w", err)
			}
		}
		for _, chunk := range chunkIDs(ids, maxBatch) {
			query, args, err := tx.Builder.Delete("item").Where(squirrel.Eq{"id": chunk}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
