package rotation

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/teamops/curator-rotation/entity"
)

type fakeMemberStore struct {
	members []*entity.Member
}

func (s *fakeMemberStore) ListEligible(ctx context.Context) ([]*entity.Member, error) {
	var ms []*entity.Member
	for _, m := range s.members {
		if m.Eligible() {
			ms = append(ms, m)
		}
	}

	return ms, nil
}

func (s *fakeMemberStore) Get(ctx context.Context, id int) (*entity.Member, error) {
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}

	return nil, nil
}

func (s *fakeMemberStore) FindByName(ctx context.Context, name string) (*entity.Member, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, m := range s.members {
		if strings.Contains(strings.ToLower(m.Name), needle) {
			return m, nil
		}
	}

	return nil, nil
}

func (s *fakeMemberStore) GrantCurator(ctx context.Context, id int) error {
	for _, m := range s.members {
		if m.ID == id {
			m.IsCurator = true
		}
	}

	return nil
}

func (s *fakeMemberStore) SetExcluded(ctx context.Context, id int, excluded bool) error {
	for _, m := range s.members {
		if m.ID == id {
			m.IsExcluded = excluded
		}
	}

	return nil
}

type fakeAssignmentStore struct {
	rows   []*entity.Assignment
	nextID int
}

func (s *fakeAssignmentStore) Create(ctx context.Context, a *entity.Assignment) (int, error) {
	s.nextID++
	cp := *a
	cp.ID = s.nextID
	s.rows = append(s.rows, &cp)

	return cp.ID, nil
}

func (s *fakeAssignmentStore) Get(ctx context.Context, id int) (*entity.Assignment, error) {
	for _, a := range s.rows {
		if a.ID == id {
			return a, nil
		}
	}

	return nil, nil
}

func (s *fakeAssignmentStore) sorted() []*entity.Assignment {
	as := make([]*entity.Assignment, len(s.rows))
	copy(as, s.rows)
	sort.Slice(as, func(i, j int) bool {
		if !as[i].AnchorOn.Equal(as[j].AnchorOn) {
			return as[i].AnchorOn.After(as[j].AnchorOn)
		}
		return as[i].ID > as[j].ID
	})

	return as
}

func (s *fakeAssignmentStore) Recent(ctx context.Context, limit int) ([]*entity.Assignment, error) {
	as := s.sorted()
	if len(as) > limit {
		as = as[:limit]
	}

	return as, nil
}

func (s *fakeAssignmentStore) LatestActive(ctx context.Context) (*entity.Assignment, error) {
	for _, a := range s.sorted() {
		if !a.IsSkip {
			return a, nil
		}
	}

	return nil, nil
}

func (s *fakeAssignmentStore) FindOverlapping(ctx context.Context, start, end time.Time) (*entity.Assignment, error) {
	for _, a := range s.rows {
		if !a.EndOn.Before(start) && !a.StartOn.After(end) {
			return a, nil
		}
	}

	return nil, nil
}

func (s *fakeAssignmentStore) SetSkip(ctx context.Context, id int, skip bool) error {
	for _, a := range s.rows {
		if a.ID == id {
			a.IsSkip = skip
		}
	}

	return nil
}

func (s *fakeAssignmentStore) CountsByName(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, a := range s.rows {
		if !a.IsSkip {
			counts[normalizeName(a.MemberName)]++
		}
	}

	return counts, nil
}

func (s *fakeAssignmentStore) Count(ctx context.Context) (int, error) {
	return len(s.rows), nil
}

type fakeTally map[string]int

func (t fakeTally) CountsByName(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(t))
	for name, n := range t {
		counts[name] = n
	}

	return counts, nil
}

type fakeOutbox struct {
	tasks []*entity.NotificationTask
}

func (o *fakeOutbox) Enqueue(ctx context.Context, task *entity.NotificationTask) error {
	cp := *task
	cp.ID = len(o.tasks) + 1
	o.tasks = append(o.tasks, &cp)

	return nil
}

func (o *fakeOutbox) Pending(ctx context.Context, limit, maxAttempts int) ([]*entity.NotificationTask, error) {
	var pending []*entity.NotificationTask
	for _, t := range o.tasks {
		if !t.SentAt.Valid && t.Attempts < maxAttempts {
			pending = append(pending, t)
		}
		if len(pending) == limit {
			break
		}
	}

	return pending, nil
}

func (o *fakeOutbox) MarkSent(ctx context.Context, id int) error {
	for _, t := range o.tasks {
		if t.ID == id {
			t.SentAt = sql.NullTime{Time: time.Now(), Valid: true}
		}
	}

	return nil
}

func (o *fakeOutbox) MarkFailed(ctx context.Context, id int, reason string) error {
	for _, t := range o.tasks {
		if t.ID == id {
			t.Attempts++
			t.LastError = sql.NullString{String: reason, Valid: true}
		}
	}

	return nil
}

// zeroRand always yields the lowest draw, so the selector picks the
// first candidate deterministically.
type zeroRand struct{}

func (zeroRand) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}

	return len(p), nil
}
