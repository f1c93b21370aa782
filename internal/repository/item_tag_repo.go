package repository

import (
	"context"

	"mediashelf/internal/models"
)

// ReplaceItemTags makes the tag set of an item equal to the dependency
// closure of roots. Links already present and still wanted are left as they are.
func (s *Repository) ReplaceItemTags(ctx context.Context, itemID int64, roots []int64) (*models.TagUpdateResult, error) {
	result := &models.TagUpdateResult{ItemID: itemID, Roots: sortIDs(append([]int64(nil), roots...))}

	err := s.withTx(ctx, func(tx *Tx) error {
		if _, err := tx.getItem(ctx, itemID); err != nil {
			return err
		}

		closure, err := closeOver(ctx, roots, tx.depsOf)
		if err != nil {
			return err
		}
		current, err := tx.itemTagIDs(ctx, itemID)
		if err != nil {
			return err
		}

		added, removed := diffIDs(closure, current)
		if err := tx.deleteLinks(ctx, itemID, removed); err != nil {
			return err
		}
		if err := tx.insertLinks(ctx, itemID, added); err != nil {
			return err
		}

		result.Closure = closure
		result.Added = added
		result.Removed = removed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetItemTagIDs returns the ids of the tags linked to an item.
func (s *Repository) GetItemTagIDs(ctx context.Context, itemID int64) ([]int64, error) {
	return s.reader().itemTagIDs(ctx, itemID)
}
