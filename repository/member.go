package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/teamops/curator-rotation/entity"
)

type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

var memberColumns = []string{
	"id",
	"name",
	"slack_id",
	"is_active",
	"is_excluded",
	"is_curator",
}

func (r *MemberRepository) Get(ctx context.Context, id int) (*entity.Member, error) {
	b := sq.
		Select(memberColumns...).
		From("members").
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"deleted_at": nil},
		})

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var m entity.Member
	if err := r.db.GetContext(ctx, &m, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &m, nil
}

func (r *MemberRepository) ListEligible(ctx context.Context) ([]*entity.Member, error) {
	b := sq.
		Select(memberColumns...).
		From("members").
		Where(sq.And{
			sq.Eq{"is_active": true},
			sq.Eq{"is_excluded": false},
			sq.NotEq{"name": ""},
			sq.Eq{"deleted_at": nil},
		}).
		OrderBy("id")

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var ms []*entity.Member
	if err := r.db.SelectContext(ctx, &ms, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	return ms, nil
}

// FindByName matches case-insensitively on a substring of the display
// name. Returns nil when nothing matches.
func (r *MemberRepository) FindByName(ctx context.Context, name string) (*entity.Member, error) {
	b := sq.
		Select(memberColumns...).
		From("members").
		Where(sq.And{
			sq.Expr("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%"),
			sq.Eq{"deleted_at": nil},
		}).
		OrderBy("id").
		Limit(1)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var m entity.Member
	if err := r.db.GetContext(ctx, &m, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &m, nil
}

func (r *MemberRepository) GrantCurator(ctx context.Context, id int) error {
	query, args, err := sq.
		Update("members").
		Set("is_curator", true).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"deleted_at": nil},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("to sql: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (r *MemberRepository) SetExcluded(ctx context.Context, id int, excluded bool) error {
	query, args, err := sq.
		Update("members").
		Set("is_excluded", excluded).
		Where(sq.And{
			sq.Eq{"id": id},
			sq.Eq{"deleted_at": nil},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("to sql: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}
