// filepath: internal/repository/dbtx.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediashelf/internal/models"
	"mediashelf/internal/shared"

	"github.com/Masterminds/squirrel"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// store holds the read helpers shared by Repository and Tx.
type store struct {
	q       queryer
	Builder squirrel.StatementBuilderType
}

// Tx is a wrapper around *sql.Tx that provides transactional database operations.
type Tx struct {
	*sql.Tx
	store
}

func (st store) getItem(ctx context.Context, id int64) (*models.Item, error) {
	query, args, err := st.Builder.Select(itemColumns...).From("item").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	item, err := scanItem(st.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d", shared.ErrNotFound, id)
	}
	return item, err
}

func (st store) getItemByPath(ctx context.Context, path string) (*models.Item, error) {
	query, args, err := st.Builder.Select(itemColumns...).From("item").Where(squirrel.Eq{"path": path}).ToSql()
	if err != nil {
		return nil, err
	}
	item, err := scanItem(st.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item at %q", shared.ErrNotFound, path)
	}
	return item, err
}

func (st store) getTag(ctx context.Context, id int64) (*models.Tag, error) {
	query, args, err := st.Builder.Select(tagColumns...).From("tag").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	tag, err := scanTag(st.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tag %d", shared.ErrNotFound, id)
	}
	return tag, err
}

func (st store) getTagByName(ctx context.Context, name string) (*models.Tag, error) {
	query, args, err := st.Builder.Select(tagColumns...).From("tag").Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return nil, err
	}
	tag, err := scanTag(st.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tag %q", shared.ErrNotFound, name)
	}
	return tag, err
}

// resolveAlias follows the alias chain of tag to its canonical tag.
// A chain that loops back on itself stops at the last unvisited tag.
func (st store) resolveAlias(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	visited := map[int64]struct{}{tag.ID: {}}
	current := tag
	for current.AliasOf != nil {
		if _, seen := visited[*current.AliasOf]; seen {
			break
		}
		next, err := st.getTag(ctx, *current.AliasOf)
		if errors.Is(err, shared.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		visited[next.ID] = struct{}{}
		current = next
	}
	return current, nil
}

// depsOf returns the distinct direct dependencies of the given tags.
func (st store) depsOf(ctx context.Context, tagIDs []int64) ([]int64, error) {
	deps := make([]int64, 0)
	for _, chunk := range chunkIDs(tagIDs, maxBatch) {
		query, args, err := st.Builder.Select("DISTINCT dep").From("tag_dep").Where(squirrel.Eq{"tag": chunk}).ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := st.q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		ids, err := collectIDs(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, ids...)
	}
	return deps, nil
}

// itemTagIDs returns the ids of the tags linked to an item.
func (st store) itemTagIDs(ctx context.Context, itemID int64) ([]int64, error) {
	query, args, err := st.Builder.Select("tag").From("item_tag").Where(squirrel.Eq{"item": itemID}).OrderBy("tag").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := st.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// hasSeriesTag reports whether the item is linked to the series tag.
func (st store) hasSeriesTag(ctx context.Context, itemID int64) (bool, error) {
	query, args, err := st.Builder.Select("COUNT(*)").
		From("item_tag it").
		Join("tag t ON t.id = it.tag").
		Where(squirrel.Eq{"it.item": itemID, "t.name": models.SeriesTag}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := st.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// collectSubtree walks the tree below rootID with an explicit queue and
// returns the root followed by its descendants in breadth-first order.
func (st store) collectSubtree(ctx context.Context, root *models.Item) ([]models.DeletedItem, error) {
	order := []models.DeletedItem{{ID: root.ID, Path: root.Path, FileType: root.FileType}}
	frontier := []int64{root.ID}
	for len(frontier) > 0 {
		var next []int64
		for _, chunk := range chunkIDs(frontier, maxBatch) {
			query, args, err := st.Builder.Select("id", "path", "file_type").
				From("item").
				Where(squirrel.Eq{"parent": chunk}).
				OrderBy("id").
				ToSql()
			if err != nil {
				return nil, err
			}
			rows, err := st.q.QueryContext(ctx, query, args...)
			if err != nil {
				return nil, err
			}
			for rows.Next() {
				var d models.DeletedItem
				var fileType string
				if err := rows.Scan(&d.ID, &d.Path, &fileType); err != nil {
					rows.Close()
					return nil, err
				}
				d.FileType = models.FileType(fileType)
				order = append(order, d)
				next = append(next, d.ID)
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return nil, err
			}
			rows.Close()
		}
		frontier = next
	}
	return order, nil
}

// upsertTag returns the tag named name, creating it when missing.
// The unique index on tag.name arbitrates concurrent creators.
func (tx *Tx) upsertTag(ctx context.Context, name string) (*models.Tag, error) {
	query, args, err := tx.Builder.Insert("tag").
		Columns("name", "created_at").
		Values(name, nowUnix()).
		Suffix("ON CONFLICT(name) DO UPDATE SET name = excluded.name RETURNING id, name, alias, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanTag(tx.QueryRowContext(ctx, query, args...))
}

// insertLinks links every tag in tagIDs to the item.
func (tx *Tx) insertLinks(ctx context.Context, itemID int64, tagIDs []int64) error {
	for _, chunk := range chunkIDs(tagIDs, maxBatch) {
		insert := tx.Builder.Insert("item_tag").Columns("item", "tag")
		for _, tagID := range chunk {
			insert = insert.Values(itemID, tagID)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to link tags to item %d: %w", itemID, err)
		}
	}
	return nil
}

// deleteLinks unlinks every tag in tagIDs from the item.
func (tx *Tx) deleteLinks(ctx context.Context, itemID int64, tagIDs []int64) error {
	for _, chunk := range chunkIDs(tagIDs, maxBatch) {
		query, args, err := tx.Builder.Delete("item_tag").
			Where(squirrel.Eq{"item": itemID, "tag": chunk}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to unlink tags from item %d: %w", itemID, err)
		}
	}
	return nil
}
