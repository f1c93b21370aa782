package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/shared"

	"github.com/Masterminds/squirrel"
	"github.com/patrickmn/go-cache"
)

func tagCacheKey(name string) string {
	return "tag_by_name_" + name
}

// FindOrCreateTag returns the tag with the given name, creating it when missing.
// The name is trimmed and lower-cased first.
func (s *Repository) FindOrCreateTag(ctx context.Context, name string) (*models.Tag, error) {
	normalized, err := models.NormalizeTagName(name)
	if err != nil {
		return nil, err
	}

	if cached, found := s.Cache.Get(tagCacheKey(normalized)); found {
		tag := *cached.(*models.Tag)
		return &tag, nil
	}

	var tag *models.Tag
	err = s.withTx(ctx, func(tx *Tx) error {
		var err error
		tag, err = tx.upsertTag(ctx, normalized)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find or create tag %q: %w", normalized, err)
	}

	s.Cache.Set(tagCacheKey(normalized), tag, cache.DefaultExpiration)
	copied := *tag
	return &copied, nil
}

// GetTag returns the tag with the given id.
func (s *Repository) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	return s.reader().getTag(ctx, id)
}

// GetTagByName returns the tag with the given name without creating it.
func (s *Repository) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	normalized, err := models.NormalizeTagName(name)
	if err != nil {
		return nil, err
	}
	return s.reader().getTagByName(ctx, normalized)
}

// ResolveTag follows the alias chain of a tag to its canonical tag.
func (s *Repository) ResolveTag(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	return s.reader().resolveAlias(ctx, tag)
}

// ListTags returns every tag ordered by name.
func (s *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	query, args, err := s.Builder.Select(tagColumns...).From("tag").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]models.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, rows.Err()
}

// GetDependencies returns the tags directly implied by tagID.
func (s *Repository) GetDependencies(ctx context.Context, tagID int64) ([]models.Tag, error) {
	if _, err := s.reader().getTag(ctx, tagID); err != nil {
		return nil, err
	}

	query, args, err := s.Builder.Select("t.id", "t.name", "t.alias", "t.created_at").
		From("tag_dep td").
		Join("tag t ON t.id = td.dep").
		Where(squirrel.Eq{"td.tag": tagID}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deps := make([]models.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, *tag)
	}
	return deps, rows.Err()
}

// SetDependencies replaces the dependency edges of tagID with the named tags.
// Missing tags are created. A name resolving to tagID itself is skipped.
// Items already linked to tagID are brought up to the new closure.
func (s *Repository) SetDependencies(ctx context.Context, tagID int64, depNames []string) error {
	err := s.withTx(ctx, func(tx *Tx) error {
		if _, err := tx.getTag(ctx, tagID); err != nil {
			return err
		}
		return tx.setDependencies(ctx, tagID, depNames)
	})
	s.Cache.Flush()
	return err
}

// UpdateTag renames a tag and replaces its dependencies in one transaction.
func (s *Repository) UpdateTag(ctx context.Context, tagID int64, name string, depNames []string) (*models.Tag, error) {
	normalized, err := models.NormalizeTagName(name)
	if err != nil {
		return nil, err
	}

	var updated *models.Tag
	err = s.withTx(ctx, func(tx *Tx) error {
		current, err := tx.getTag(ctx, tagID)
		if err != nil {
			return err
		}
		if current.Name != normalized {
			query, args, err := tx.Builder.Update("tag").Set("name", normalized).Where(squirrel.Eq{"id": tagID}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: tag %q already exists", shared.ErrConflict, normalized)
				}
				return err
			}
		}
		if err := tx.setDependencies(ctx, tagID, depNames); err != nil {
			return err
		}
		updated, err = tx.getTag(ctx, tagID)
		return err
	})
	s.Cache.Flush()
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetAlias makes tagID an alias of the tag named target. An empty target clears the alias.
func (s *Repository) SetAlias(ctx context.Context, tagID int64, target string) error {
	err := s.withTx(ctx, func(tx *Tx) error {
		if _, err := tx.getTag(ctx, tagID); err != nil {
			return err
		}

		var alias any
		if target != "" {
			normalized, err := models.NormalizeTagName(target)
			if err != nil {
				return err
			}
			targetTag, err := tx.upsertTag(ctx, normalized)
			if err != nil {
				return err
			}
			if err := tx.checkAliasChain(ctx, tagID, targetTag); err != nil {
				return err
			}
			alias = targetTag.ID
		}

		query, args, err := tx.Builder.Update("tag").Set("alias", alias).Where(squirrel.Eq{"id": tagID}).ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		if alias == nil {
			return nil
		}
		return tx.repointAlias(ctx, tagID)
	})
	s.Cache.Flush()
	return err
}

// DeleteTag removes a tag with its item links and dependency edges in both directions.
func (s *Repository) DeleteTag(ctx context.Context, tagID int64) error {
	err := s.withTx(ctx, func(tx *Tx) error {
		if _, err := tx.getTag(ctx, tagID); err != nil {
			return err
		}

		statements := []squirrel.Sqlizer{
			tx.Builder.Delete("item_tag").Where(squirrel.Eq{"tag": tagID}),
			tx.Builder.Delete("tag_dep").Where(squirrel.Or{squirrel.Eq{"tag": tagID}, squirrel.Eq{"dep": tagID}}),
			tx.Builder.Update("tag").Set("alias", nil).Where(squirrel.Eq{"alias": tagID}),
			tx.Builder.Delete("tag").Where(squirrel.Eq{"id": tagID}),
		}
		for _, stmt := range statements {
			query, args, err := stmt.ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete tag %d: %w", tagID, err)
			}
		}
		return nil
	})
	s.Cache.Flush()
	return err
}

// CountUsage returns every tag with the number of distinct items linked to it.
func (s *Repository) CountUsage(ctx context.Context) ([]models.TagUsage, error) {
	return s.countUsage(ctx, nil)
}

// UsageCounts returns the global usage count of each given tag keyed by tag name.
func (s *Repository) UsageCounts(ctx context.Context, tagIDs []int64) (map[string]int, error) {
	counts := make(map[string]int, len(tagIDs))
	for _, chunk := range chunkIDs(tagIDs, maxBatch) {
		usage, err := s.countUsage(ctx, squirrel.Eq{"t.id": chunk})
		if err != nil {
			return nil, err
		}
		for _, u := range usage {
			counts[u.Name] = u.Count
		}
	}
	return counts, nil
}

func (s *Repository) countUsage(ctx context.Context, where squirrel.Sqlizer) ([]models.TagUsage, error) {
	builder := s.Builder.Select("t.id", "t.name", "t.alias", "t.created_at", "COUNT(DISTINCT it.item)").
		From("tag t").
		LeftJoin("item_tag it ON it.tag = t.id")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.GroupBy("t.id").OrderBy("t.name").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make([]models.TagUsage, 0)
	for rows.Next() {
		var u models.TagUsage
		var alias *int64
		if err := rows.Scan(&u.ID, &u.Name, &alias, &u.CreatedAt, &u.Count); err != nil {
			return nil, err
		}
		u.AliasOf = alias
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// FindTagsByItems returns the tags linked to each of the given items.
func (s *Repository) FindTagsByItems(ctx context.Context, itemIDs []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag, len(itemIDs))
	for _, chunk := range chunkIDs(itemIDs, maxBatch) {
		query, args, err := s.Builder.Select("it.item", "t.id", "t.name", "t.alias", "t.created_at").
			From("item_tag it").
			Join("tag t ON t.id = it.tag").
			Where(squirrel.Eq{"it.item": chunk}).
			OrderBy("it.item", "t.name").
			ToSql()
		if err != nil {
			return nil, err
		}
		rows, err := s.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var itemID int64
			var tag models.Tag
			var alias *int64
			if err := rows.Scan(&itemID, &tag.ID, &tag.Name, &alias, &tag.CreatedAt); err != nil {
				rows.Close()
				return nil, err
			}
			tag.AliasOf = alias
			result[itemID] = append(result[itemID], tag)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// setDependencies diffs the edge set of tagID against depNames and re-closes
// the items that carry tagID when edges were added.
func (tx *Tx) setDependencies(ctx context.Context, tagID int64, depNames []string) error {
	want := make([]int64, 0, len(depNames))
	wantSet := make(map[int64]struct{}, len(depNames))
	for _, name := range depNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		normalized, err := models.NormalizeTagName(name)
		if err != nil {
			return err
		}
		dep, err := tx.upsertTag(ctx, normalized)
		if err != nil {
			return err
		}
		dep, err = tx.resolveAlias(ctx, dep)
		if err != nil {
			return err
		}
		if dep.ID == tagID {
			continue
		}
		if _, dup := wantSet[dep.ID]; dup {
			continue
		}
		wantSet[dep.ID] = struct{}{}
		want = append(want, dep.ID)
	}

	query, args, err := tx.Builder.Select("dep").From("tag_dep").Where(squirrel.Eq{"tag": tagID}).ToSql()
	if err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	have, err := collectIDs(rows)
	if err != nil {
		return err
	}

	added, removed := diffIDs(want, have)
	if len(removed) > 0 {
		query, args, err := tx.Builder.Delete("tag_dep").Where(squirrel.Eq{"tag": tagID, "dep": removed}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to remove dependencies of tag %d: %w", tagID, err)
		}
	}
	if len(added) == 0 {
		return nil
	}

	insert := tx.Builder.Insert("tag_dep").Columns("tag", "dep")
	for _, dep := range added {
		insert = insert.Values(tagID, dep)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to add dependencies of tag %d: %w", tagID, err)
	}

	linked, err := tx.propagateDependencies(ctx, tagID)
	if err != nil {
		return err
	}
	if linked > 0 {
		logging.Log.Debugf("Dependency change on tag %d linked %d additional item tags", tagID, linked)
	}
	return nil
}

// propagateDependencies links the missing implied tags of every item that
// carries tagID, repeating until a pass inserts nothing.
func (tx *Tx) propagateDependencies(ctx context.Context, tagID int64) (int64, error) {
	const stmt = `
		INSERT OR IGNORE INTO item_tag (item, tag)
		SELECT it.item, td.dep
		FROM item_tag it
		JOIN tag_dep td ON td.tag = it.tag
		WHERE it.item IN (SELECT item FROM item_tag WHERE tag = ?)
	`
	var total int64
	for {
		res, err := tx.ExecContext(ctx, stmt, tagID)
		if err != nil {
			return total, fmt.Errorf("failed to propagate dependencies of tag %d: %w", tagID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
}

// repointAlias moves the item links and dependency edges of aliasID onto its
// canonical tag, then closes the items affected by the moved edges.
func (tx *Tx) repointAlias(ctx context.Context, aliasID int64) error {
	alias, err := tx.getTag(ctx, aliasID)
	if err != nil {
		return err
	}
	canonical, err := tx.resolveAlias(ctx, alias)
	if err != nil {
		return err
	}
	if canonical.ID == aliasID {
		return nil
	}

	statements := []struct {
		query string
		args  []any
	}{
		{`INSERT OR IGNORE INTO item_tag (item, tag) SELECT item, ? FROM item_tag WHERE tag = ?`, []any{canonical.ID, aliasID}},
		{`DELETE FROM item_tag WHERE tag = ?`, []any{aliasID}},
		{`INSERT OR IGNORE INTO tag_dep (tag, dep) SELECT ?, dep FROM tag_dep WHERE tag = ? AND dep <> ?`, []any{canonical.ID, aliasID, canonical.ID}},
		{`INSERT OR IGNORE INTO tag_dep (tag, dep) SELECT tag, ? FROM tag_dep WHERE dep = ? AND tag <> ?`, []any{canonical.ID, aliasID, canonical.ID}},
		{`DELETE FROM tag_dep WHERE tag = ? OR dep = ?`, []any{aliasID, aliasID}},
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("failed to repoint alias tag %d: %w", aliasID, err)
		}
	}

	query, args, err := tx.Builder.Select("tag").From("tag_dep").Where(squirrel.Eq{"dep": canonical.ID}).ToSql()
	if err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	dependents, err := collectIDs(rows)
	if err != nil {
		return err
	}
	for _, id := range append([]int64{canonical.ID}, dependents...) {
		linked, err := tx.propagateDependencies(ctx, id)
		if err != nil {
			return err
		}
		if linked > 0 {
			logging.Log.Debugf("Alias %d -> %d linked %d additional item tags", aliasID, canonical.ID, linked)
		}
	}
	return nil
}

// checkAliasChain rejects an alias from tagID to target when target's chain leads back to tagID.
func (tx *Tx) checkAliasChain(ctx context.Context, tagID int64, target *models.Tag) error {
	current := target
	visited := map[int64]struct{}{}
	for {
		if current.ID == tagID {
			return fmt.Errorf("%w: alias of tag %d would form a cycle", shared.ErrValidation, tagID)
		}
		visited[current.ID] = struct{}{}
		if current.AliasOf == nil {
			return nil
		}
		if _, seen := visited[*current.AliasOf]; seen {
			return nil
		}
		next, err := tx.getTag(ctx, *current.AliasOf)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
	}
}
