package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// PhotoFilter holds optional predicates for listing photos. Nil fields
// are not applied.
type PhotoFilter struct {
	Camera      *string
	Tag         *string
	TakenAfter  *int64
	TakenBefore *int64
	MinOverall  *float64
	Processed   *bool
	Sort        string
	Limit       uint64
	Offset      uint64
}

// BuildPhotoIDQuery constructs the filtered photo ID query. Separated from
// execution so query construction is testable without a database.
func BuildPhotoIDQuery(f PhotoFilter) (string, []interface{}, error) {
	qb := psql.Select("id").
		From("photos").
		Where(sq.Eq{"deleted_at": nil})

	if f.Camera != nil {
		qb = qb.Where(sq.Like{"camera": "%" + *f.Camera + "%"})
	}
	if f.Tag != nil {
		// tags are stored as a JSON array; a quoted LIKE match avoids
		// prefix collisions between tags
		qb = qb.Where(sq.Like{"tags": "%\"" + *f.Tag + "\"%"})
	}
	if f.TakenAfter != nil {
		qb = qb.Where(sq.GtOrEq{"taken_at": *f.TakenAfter})
	}
	if f.TakenBefore != nil {
		qb = qb.Where(sq.LtOrEq{"taken_at": *f.TakenBefore})
	}
	if f.MinOverall != nil {
		qb = qb.Where(sq.GtOrEq{"score_overall": *f.MinOverall})
	}
	if f.Processed != nil {
		qb = qb.Where(sq.Eq{"ai_processed": *f.Processed})
	}

	switch f.Sort {
	case SortDateAsc:
		qb = qb.OrderBy("taken_at ASC", "filename ASC")
	case SortDateDesc:
		qb = qb.OrderBy("taken_at DESC", "filename ASC")
	case SortScoreDesc:
		qb = qb.OrderBy("score_overall DESC", "filename ASC")
	default:
		// filename_asc and filename_nat both order by filename here;
		// natural ordering is refined in-process by the caller
		qb = qb.OrderBy("filename ASC")
	}

	if f.Limit > 0 {
		qb = qb.Limit(f.Limit)
	}
	if f.Offset > 0 {
		qb = qb.Offset(f.Offset)
	}

	return qb.ToSql()
}

// QueryPhotoIDs runs the filtered listing and returns matching photo IDs
// in sort order.
func QueryPhotoIDs(db *sql.DB, f PhotoFilter) ([]string, error) {
	sqlStr, args, err := BuildPhotoIDQuery(f)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo listing query: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo listing: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan photo id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
