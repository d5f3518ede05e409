package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// LegacyDutyRepository reads the duty records imported from the old
// spreadsheet. The service never writes this table; it only folds the
// counts into the rotation snapshot.
type LegacyDutyRepository struct {
	db *sqlx.DB
}

func NewLegacyDutyRepository(db *sqlx.DB) *LegacyDutyRepository {
	return &LegacyDutyRepository{db: db}
}

func (r *LegacyDutyRepository) CountsByName(ctx context.Context) (map[string]int, error) {
	b := sq.
		Select(
			"LOWER(TRIM(name)) AS name",
			"COUNT(*) AS cnt",
		).
		From("legacy_duty_records").
		Where(sq.Eq{"is_skip": false}).
		GroupBy("LOWER(TRIM(name))")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var rows []struct {
		Name string `db:"name"`
		Cnt  int    `db:"cnt"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Cnt
	}

	return counts, nil
}
