package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/teamops/curator-rotation/entity"
)

type AssignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

var assignmentColumns = []string{
	"id",
	"member_id",
	"member_name",
	"anchor_on",
	"start_on",
	"end_on",
	"is_manual",
	"is_skip",
	"assigned_by",
	"created_at",
}

func (r *AssignmentRepository) Create(ctx context.Context, a *entity.Assignment) (int, error) {
	query, args, err := sq.
		Insert("curator_assignments").
		Columns(
			"member_id",
			"member_name",
			"anchor_on",
			"start_on",
			"end_on",
			"is_manual",
			"is_skip",
			"assigned_by",
		).
		Values(
			a.MemberID,
			a.MemberName,
			a.AnchorOn,
			a.StartOn,
			a.EndOn,
			a.IsManual,
			a.IsSkip,
			a.AssignedBy,
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return int(id), nil
}

func (r *AssignmentRepository) Get(ctx context.Context, id int) (*entity.Assignment, error) {
	b := sq.
		Select(assignmentColumns...).
		From("curator_assignments").
		Where(sq.Eq{"id": id})

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var a entity.Assignment
	if err := r.db.GetContext(ctx, &a, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &a, nil
}

// Recent returns the most recent assignments by anchor date. Skipped
// entries are included; the fairness lookback counts them.
func (r *AssignmentRepository) Recent(ctx context.Context, limit int) ([]*entity.Assignment, error) {
	b := sq.
		Select(assignmentColumns...).
		From("curator_assignments").
		OrderBy("anchor_on DESC", "id DESC").
		Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var as []*entity.Assignment
	if err := r.db.SelectContext(ctx, &as, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	return as, nil
}

func (r *AssignmentRepository) LatestActive(ctx context.Context) (*entity.Assignment, error) {
	b := sq.
		Select(assignmentColumns...).
		From("curator_assignments").
		Where(sq.Eq{"is_skip": false}).
		OrderBy("anchor_on DESC", "id DESC").
		Limit(1)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var a entity.Assignment
	if err := r.db.GetContext(ctx, &a, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &a, nil
}

// FindOverlapping returns the first assignment whose window touches
// [start, end], boundaries included. Skipped assignments still count.
func (r *AssignmentRepository) FindOverlapping(ctx context.Context, start, end time.Time) (*entity.Assignment, error) {
	b := sq.
		Select(assignmentColumns...).
		From("curator_assignments").
		Where(sq.And{
			sq.GtOrEq{"end_on": start},
			sq.LtOrEq{"start_on": end},
		}).
		OrderBy("start_on").
		Limit(1)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var a entity.Assignment
	if err := r.db.GetContext(ctx, &a, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &a, nil
}

func (r *AssignmentRepository) SetSkip(ctx context.Context, id int, skip bool) error {
	query, args, err := sq.
		Update("curator_assignments").
		Set("is_skip", skip).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("to sql: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

// CountsByName tallies non-skipped assignments per normalized name.
func (r *AssignmentRepository) CountsByName(ctx context.Context) (map[string]int, error) {
	b := sq.
		Select(
			"LOWER(TRIM(member_name)) AS name",
			"COUNT(*) AS cnt",
		).
		From("curator_assignments").
		Where(sq.Eq{"is_skip": false}).
		GroupBy("LOWER(TRIM(member_name))")

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

func (r *AssignmentRepository) Count(ctx context.Context) (int, error) {
	query, args, err := sq.
		Select("COUNT(*)").
		From("curator_assignments").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("get: %w", err)
	}

	return n, nil
}
