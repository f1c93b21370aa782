// filepath: internal/repository/utils.go
package repository

import (
	"database/sql"
	"errors"
	"sort"
	"strings"

	"mediashelf/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// maxBatch bounds the number of bound parameters in a single IN (...) list.
const maxBatch = 500

var itemColumns = []string{"id", "name", "path", "file_type", "created_at", "parent", "content_hash"}

var tagColumns = []string{"id", "name", "alias", "created_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem scans one row selected with itemColumns.
func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var fileType string
	var parent sql.NullInt64
	if err := row.Scan(&item.ID, &item.Name, &item.Path, &fileType, &item.CreatedAt, &parent, &item.ContentHash); err != nil {
		return nil, err
	}
	item.FileType = models.FileType(fileType)
	if parent.Valid {
		p := parent.Int64
		item.ParentID = &p
	}
	return &item, nil
}

// scanTag scans one row selected with tagColumns.
func scanTag(row rowScanner) (*models.Tag, error) {
	var tag models.Tag
	var alias sql.NullInt64
	if err := row.Scan(&tag.ID, &tag.Name, &alias, &tag.CreatedAt); err != nil {
		return nil, err
	}
	if alias.Valid {
		a := alias.Int64
		tag.AliasOf = &a
	}
	return &tag, nil
}

func collectItems(rows *sql.Rows) ([]models.Item, error) {
	defer rows.Close()
	items := make([]models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// extended result codes disabled
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []int64, size int) [][]int64 {
	var chunks [][]int64
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func sortIDs(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// diffIDs returns the ids only in want and the ids only in have.
func diffIDs(want, have []int64) (added, removed []int64) {
	wantSet := make(map[int64]struct{}, len(want))
	for _, id := range want {
		wantSet[id] = struct{}{}
	}
	haveSet := make(map[int64]struct{}, len(have))
	for _, id := range have {
		haveSet[id] = struct{}{}
		if _, ok := wantSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	for _, id := range want {
		if _, ok := haveSet[id]; !ok {
			added = append(added, id)
		}
	}
	return sortIDs(added), sortIDs(removed)
}
