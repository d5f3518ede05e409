package rotation

import (
	"context"
	"time"

	"github.com/teamops/curator-rotation/entity"
)

// TallySource yields lifetime serve counts keyed by normalized name.
// Both the ledger and the legacy duty records implement it, and the
// status aggregation merges the two explicitly.
type TallySource interface {
	CountsByName(ctx context.Context) (map[string]int, error)
}

type MemberStore interface {
	ListEligible(ctx context.Context) ([]*entity.Member, error)
	Get(ctx context.Context, id int) (*entity.Member, error)
	FindByName(ctx context.Context, name string) (*entity.Member, error)
	GrantCurator(ctx context.Context, id int) error
	SetExcluded(ctx context.Context, id int, excluded bool) error
}

type AssignmentStore interface {
	TallySource

	Create(ctx context.Context, a *entity.Assignment) (int, error)
	Get(ctx context.Context, id int) (*entity.Assignment, error)
	Recent(ctx context.Context, limit int) ([]*entity.Assignment, error)
	LatestActive(ctx context.Context) (*entity.Assignment, error)
	FindOverlapping(ctx context.Context, start, end time.Time) (*entity.Assignment, error)
	SetSkip(ctx context.Context, id int, skip bool) error
	Count(ctx context.Context) (int, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, task *entity.NotificationTask) error
	Pending(ctx context.Context, limit, maxAttempts int) ([]*entity.NotificationTask, error)
	MarkSent(ctx context.Context, id int) error
	MarkFailed(ctx context.Context, id int, reason string) error
}
