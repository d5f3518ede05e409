package rotation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/teamops/curator-rotation/entity"
)

// Scheduler ties the window calculation, conflict check and fairness
// pick into one committed ledger entry. The conflict check is
// read-then-decide: two concurrent calls for overlapping windows can
// both pass it. Closing that gap needs the check-and-insert inside one
// transaction with a range-exclusion constraint; at weekly call
// frequency a manual retry is acceptable.
type Scheduler struct {
	members     MemberStore
	assignments AssignmentStore
	legacy      TallySource
	outbox      OutboxStore
	selector    *Selector
}

func NewScheduler(
	members MemberStore,
	assignments AssignmentStore,
	legacy TallySource,
	outbox OutboxStore,
) *Scheduler {
	return &Scheduler{
		members:     members,
		assignments: assignments,
		legacy:      legacy,
		outbox:      outbox,
		selector:    NewSelector(assignments),
	}
}

func authorize(actor *entity.Actor) error {
	if actor == nil {
		return ErrAuthenticationRequired
	}
	if actor.Role != "admin" && actor.Role != "leader" {
		return ErrForbidden
	}

	return nil
}

// Assign creates an automatic assignment for the anchor date. The
// assignee is picked by the fairness selector.
func (s *Scheduler) Assign(ctx context.Context, actor *entity.Actor, anchor time.Time) (*entity.Assignment, *entity.Member, error) {
	if err := authorize(actor); err != nil {
		return nil, nil, err
	}
	if anchor.IsZero() {
		return nil, nil, &ValidationError{Field: "anchor_on", Message: "required"}
	}

	w := WindowFor(anchor)
	if err := s.checkConflict(ctx, w); err != nil {
		return nil, nil, err
	}

	roster, err := s.members.ListEligible(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list eligible members: %w", err)
	}

	member, err := s.selector.Pick(ctx, roster)
	if err != nil {
		return nil, nil, err
	}

	a, err := s.commit(ctx, actor, anchor, w, member, member.Name, false)
	if err != nil {
		return nil, nil, err
	}

	return a, member, nil
}

// AssignTo creates a manual assignment, bypassing the fairness
// selector but not the conflict check. A bare name is matched
// case-insensitively against the roster; when nothing matches the
// assignment is still created with no member reference and the
// permission grant and notification are skipped.
func (s *Scheduler) AssignTo(ctx context.Context, actor *entity.Actor, anchor time.Time, memberID int, name string) (*entity.Assignment, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if anchor.IsZero() {
		return nil, &ValidationError{Field: "anchor_on", Message: "required"}
	}
	if memberID == 0 && name == "" {
		return nil, &ValidationError{Field: "member_name", Message: "required"}
	}

	w := WindowFor(anchor)
	if err := s.checkConflict(ctx, w); err != nil {
		return nil, err
	}

	var member *entity.Member
	var err error
	if memberID != 0 {
		member, err = s.members.Get(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("get member: %w", err)
		}
		if member == nil {
			return nil, ErrNotFound
		}
	} else {
		member, err = s.members.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("find member by name: %w", err)
		}
	}

	assigneeName := name
	if member != nil {
		assigneeName = member.Name
	}

	return s.commit(ctx, actor, anchor, w, member, assigneeName, true)
}

func (s *Scheduler) checkConflict(ctx context.Context, w Window) error {
	existing, err := s.assignments.FindOverlapping(ctx, w.Start, w.End)
	if err != nil {
		return fmt.Errorf("find overlapping assignment: %w", err)
	}
	if existing != nil {
		return &ConflictError{
			AssignmentID: existing.ID,
			MemberName:   existing.MemberName,
			StartOn:      existing.StartOn,
			EndOn:        existing.EndOn,
		}
	}

	return nil
}

func (s *Scheduler) commit(ctx context.Context, actor *entity.Actor, anchor time.Time, w Window, member *entity.Member, name string, manual bool) (*entity.Assignment, error) {
	if member != nil && !member.IsCurator {
		if err := s.members.GrantCurator(ctx, member.ID); err != nil {
			return nil, fmt.Errorf("grant curator: %w", err)
		}
	}

	a := &entity.Assignment{
		MemberName: name,
		AnchorOn:   anchor,
		StartOn:    w.Start,
		EndOn:      w.End,
		IsManual:   manual,
		AssignedBy: actor.Name,
		CreatedAt:  time.Now(),
	}
	if member != nil {
		id := int64(member.ID)
		a.MemberID = &id
	}

	id, err := s.assignments.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	a.ID = id

	// The notification rides the outbox; failing to enqueue never
	// unwinds the ledger write.
	if member != nil && member.SlackID != "" {
		task := &entity.NotificationTask{
			AssignmentID: id,
			MemberName:   member.Name,
			SlackID:      member.SlackID,
			StartOn:      w.Start,
			EndOn:        w.End,
		}
		if err := s.outbox.Enqueue(ctx, task); err != nil {
			log.Printf("Enqueue notification: %v.", err)
		}
	}

	return a, nil
}

// ToggleSkip flips an assignment's skip flag. Skipped assignments stay
// in the ledger and still block overlapping windows and still count
// against the fairness lookback; they only drop out of the lifetime
// tallies.
func (s *Scheduler) ToggleSkip(ctx context.Context, actor *entity.Actor, id int, skip bool) (*entity.Assignment, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	a, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}

	if err := s.assignments.SetSkip(ctx, id, skip); err != nil {
		return nil, fmt.Errorf("set skip: %w", err)
	}
	a.IsSkip = skip

	return a, nil
}

// SetRotationOptOut sets or clears a member's opted-out flag.
func (s *Scheduler) SetRotationOptOut(ctx context.Context, actor *entity.Actor, memberID int, excluded bool) (*entity.Member, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}

	m, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return nil, ErrNotFound
	}

	if err := s.members.SetExcluded(ctx, memberID, excluded); err != nil {
		return nil, fmt.Errorf("set excluded: %w", err)
	}
	m.IsExcluded = excluded

	return m, nil
}
