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

// ValidateRelPath checks that p is a clean, slash separated path relative to the library root.
func ValidateRelPath(p string) error {
	if p == "" || p == "." {
		return fmt.Errorf("%w: empty path", shared.ErrValidation)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return fmt.Errorf("%w: path %q must be relative and use forward slashes", shared.ErrValidation, p)
	}
	if path.Clean(p) != p {
		return fmt.Errorf("%w: path %q is not clean", shared.ErrValidation, p)
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return fmt.Errorf("%w: path %q escapes the library root", shared.ErrValidation, p)
		}
	}
	return nil
}

// InsertItem stores a new item.
// The path must be unused and, for non-folder items, the content hash must be
// unused among non-folder items; both are reported as shared.ErrConflict.
// A parent, when given, must exist and be a folder.
func (s *Repository) InsertItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: item name is empty", shared.ErrValidation)
	}
	if err := ValidateRelPath(item.Path); err != nil {
		return nil, err
	}
	if !item.FileType.Valid() {
		return nil, fmt.Errorf("%w: unknown file type %q", shared.ErrValidation, item.FileType)
	}
	if item.ContentHash == "" {
		return nil, fmt.Errorf("%w: content hash is empty", shared.ErrValidation)
	}

	created := *item
	if created.CreatedAt == 0 {
		created.CreatedAt = nowUnix()
	}

	err := s.withTx(ctx, func(tx *Tx) error {
		if created.ParentID != nil {
			parent, err := tx.getItem(ctx, *created.ParentID)
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("%w: parent %d does not exist", shared.ErrValidation, *created.ParentID)
			}
			if err != nil {
				return err
			}
			if !parent.IsFolder() {
				return fmt.Errorf("%w: parent %d is not a folder", shared.ErrValidation, parent.ID)
			}
		}

		if existing, err := tx.getItemByPath(ctx, created.Path); err == nil {
			return fmt.Errorf("%w: path %q already stored as item %d", shared.ErrConflict, created.Path, existing.ID)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if !created.IsFolder() {
			if existingID, found, err := tx.findByContentHash(ctx, created.ContentHash); err != nil {
				return err
			} else if found {
				return fmt.Errorf("%w: content already stored as item %d", shared.ErrConflict, existingID)
			}
		}

		query, args, err := tx.Builder.Insert("item").
			Columns("name", "path", "file_type", "created_at", "parent", "content_hash").
			Values(created.Name, created.Path, string(created.FileType), created.CreatedAt, created.ParentID, created.ContentHash).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: item %q: %v", shared.ErrConflict, created.Path, err)
			}
			return fmt.Errorf("failed to insert item %q: %w", created.Path, err)
		}
		created.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// findByContentHash looks up a non-folder item by content hash.
func (tx *Tx) findByContentHash(ctx context.Context, hash string) (int64, bool, error) {
	query, args, err := tx.Builder.Select("id").
		From("item").
		Where(squirrel.And{squirrel.Eq{"content_hash": hash}, squirrel.NotEq{"file_type": string(models.FileTypeFolder)}}).
		ToSql()
	if err != nil {
		return 0, false, err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, false, err
	}
	ids, err := collectIDs(rows)
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

// GetItem returns the item with the given id.
func (s *Repository) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	return s.reader().getItem(ctx, id)
}

// GetItemByPath returns the item stored at the given relative path.
func (s *Repository) GetItemByPath(ctx context.Context, relPath string) (*models.Item, error) {
	return s.reader().getItemByPath(ctx, relPath)
}

// UpdateFileType changes the stored classification of an item.
func (s *Repository) UpdateFileType(ctx context.Context, id int64, fileType models.FileType) error {
	if !fileType.Valid() {
		return fmt.Errorf("%w: unknown file type %q", shared.ErrValidation, fileType)
	}
	query, args, err := s.Builder.Update("item").Set("file_type", string(fileType)).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: item %d: %v", shared.ErrConflict, id, err)
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: item %d", shared.ErrNotFound, id)
	}
	return nil
}

// ListFolders returns every folder ordered by path.
func (s *Repository) ListFolders(ctx context.Context) ([]models.Item, error) {
	query, args, err := s.Builder.Select(itemColumns...).
		From("item").
		Where(squirrel.Eq{"file_type": string(models.FileTypeFolder)}).
		OrderBy("path").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// FindChildren returns a page of the children of parentID and their total count.
// Children of a series folder are ordered by name, all others newest first.
func (s *Repository) FindChildren(ctx context.Context, parentID int64, limit, offset int) ([]models.Item, int, error) {
	st := s.reader()
	if _, err := st.getItem(ctx, parentID); err != nil {
		return nil, 0, err
	}
	series, err := st.hasSeriesTag(ctx, parentID)
	if err != nil {
		return nil, 0, err
	}

	q := itemQuery{parentID: &parentID, limit: limit, offset: offset}
	if series {
		q.order = orderByName
	}
	return st.queryItems(ctx, q)
}

// ListTopLevel returns a page of the main grid. When excludeSeriesChildren is
// set, items whose parent folder carries the series tag are left out.
func (s *Repository) ListTopLevel(ctx context.Context, excludeSeriesChildren bool, limit, offset int) ([]models.Item, int, error) {
	q := itemQuery{excludeSeriesChildren: excludeSeriesChildren, limit: limit, offset: offset}
	return s.reader().queryItems(ctx, q)
}

// FindByTagNames returns a page of the items that carry every one of the
// named tags. Names are resolved through aliases; an unknown name yields an
// empty page.
func (s *Repository) FindByTagNames(ctx context.Context, names []string, limit, offset int) ([]models.Item, int, error) {
	st := s.reader()
	ids := make([]int64, 0, len(names))
	seen := make(map[int64]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		normalized, err := models.NormalizeTagName(name)
		if err != nil {
			return nil, 0, err
		}
		tag, err := st.getTagByName(ctx, normalized)
		if errors.Is(err, shared.ErrNotFound) {
			return []models.Item{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		tag, err = st.resolveAlias(ctx, tag)
		if err != nil {
			return nil, 0, err
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}
	if len(ids) == 0 {
		return []models.Item{}, 0, nil
	}

	return st.queryItems(ctx, itemQuery{allTagIDs: ids, limit: limit, offset: offset})
}
