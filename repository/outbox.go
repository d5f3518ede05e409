package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/teamops/curator-rotation/entity"
)

type OutboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, task *entity.NotificationTask) error {
	query, args, err := sq.
		Insert("notification_outbox").
		Columns(
			"assignment_id",
			"member_name",
			"slack_id",
			"start_on",
			"end_on",
		).
		Values(
			task.AssignmentID,
			task.MemberName,
			task.SlackID,
			task.StartOn,
			task.EndOn,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("to sql: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

// Pending lists undelivered tasks still under the attempt cap. Rows
// at the cap stay in the table for the operator but never occupy a
// batch slot again.
func (r *OutboxRepository) Pending(ctx context.Context, limit, maxAttempts int) ([]*entity.NotificationTask, error) {
	b := sq.
		Select(
			"id",
			"assignment_id",
			"member_name",
			"slack_id",
			"start_on",
			"end_on",
			"attempts",
			"last_error",
			"sent_at",
			"created_at",
		).
		From("notification_outbox").
		Where(sq.And{
			sq.Eq{"sent_at": nil},
			sq.Lt{"attempts": maxAttempts},
		}).
		OrderBy("id").
		Limit(uint64(limit))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var tasks []*entity.NotificationTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	return tasks, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int) error {
	query, args, err := sq.
		Update("notification_outbox").
		Set("sent_at", time.Now()).
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

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int, reason string) error {
	query, args, err := sq.
		Update("notification_outbox").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", reason).
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
