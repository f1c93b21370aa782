// filepath: internal/repository/query_repo.go
package repository

import (
	"context"
	"fmt"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"

	"github.com/Masterminds/squirrel"
)

// itemOrder selects the ordering of an item page.
type itemOrder int

const (
	orderNewestFirst itemOrder = iota // created_at DESC
	orderByName                       // plain byte-wise name ASC
)

// itemQuery describes a filtered, ordered and paginated item selection.
type itemQuery struct {
	parentID              *int64
	excludeSeriesChildren bool
	allTagIDs             []int64 // item must carry every one of these
	order                 itemOrder
	limit                 int
	offset                int
}

// where composes the predicates of q. Every value travels as a bound parameter.
func (q itemQuery) where(b squirrel.StatementBuilderType) (squirrel.And, error) {
	conds := squirrel.And{}

	if q.parentID != nil {
		conds = append(conds, squirrel.Eq{"parent": *q.parentID})
	}

	if q.excludeSeriesChildren {
		seriesSQL, seriesArgs, err := b.Select("it.item").
			From("item_tag it").
			Join("tag t ON t.id = it.tag").
			Where(squirrel.Eq{"t.name": models.SeriesTag}).
			ToSql()
		if err != nil {
			return nil, err
		}
		conds = append(conds, squirrel.Expr("(parent IS NULL OR parent NOT IN ("+seriesSQL+"))", seriesArgs...))
	}

	if len(q.allTagIDs) > 0 {
		matchSQL, matchArgs, err := b.Select("item").
			From("item_tag").
			Where(squirrel.Eq{"tag": q.allTagIDs}).
			GroupBy("item").
			Having("COUNT(DISTINCT tag) = ?", len(q.allTagIDs)).
			ToSql()
		if err != nil {
			return nil, err
		}
		conds = append(conds, squirrel.Expr("id IN ("+matchSQL+")", matchArgs...))
	}

	return conds, nil
}

func (q itemQuery) orderBy() []string {
	if q.order == orderByName {
		return []string{"name COLLATE BINARY ASC", "id ASC"}
	}
	return []string{"created_at DESC", "id DESC"}
}

// selectSQL renders the page query of q.
func (q itemQuery) selectSQL(b squirrel.StatementBuilderType) (string, []interface{}, error) {
	conds, err := q.where(b)
	if err != nil {
		return "", nil, err
	}
	builder := b.Select(itemColumns...).From("item").Where(conds).OrderBy(q.orderBy()...)
	if q.limit > 0 {
		builder = builder.Limit(uint64(q.limit))
	}
	if q.offset > 0 {
		builder = builder.Offset(uint64(q.offset))
	}
	return builder.ToSql()
}

// countSQL renders the total count query of q, ignoring pagination.
func (q itemQuery) countSQL(b squirrel.StatementBuilderType) (string, []interface{}, error) {
	conds, err := q.where(b)
	if err != nil {
		return "", nil, err
	}
	return b.Select("COUNT(*)").From("item").Where(conds).ToSql()
}

// queryItems runs q and returns the page together with the total match count.
func (st store) queryItems(ctx context.Context, q itemQuery) ([]models.Item, int, error) {
	countQuery, countArgs, err := q.countSQL(st.Builder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := st.q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	pageQuery, pageArgs, err := q.selectSQL(st.Builder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build item query: %w", err)
	}
	logging.Log.Debugf("Generated SQL for item page: %s", pageQuery)
	logging.Log.Debugf("Arguments: %v", pageArgs)

	rows, err := st.q.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		logging.Log.Errorf("Error executing item page query: %v", err)
		return nil, 0, err
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
