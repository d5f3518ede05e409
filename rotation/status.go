package rotation

import (
	"context"
	"fmt"

	"github.com/teamops/curator-rotation/entity"
)

const defaultLookback = 10

type Snapshot struct {
	// RecentNames are the assignees of the most recent N ledger
	// entries, N being the current eligible roster size. These are
	// the names the fairness selector will avoid on the next pick.
	RecentNames []string       `json:"recent_names"`
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
}

type Status struct {
	// Current is derived from the ledger as the most recent
	// non-skipped assignment, never tracked as a separate pointer.
	Current  *entity.Assignment   `json:"current"`
	Recent   []*entity.Assignment `json:"recent"`
	Roster   []*entity.Member     `json:"roster"`
	Snapshot Snapshot             `json:"snapshot"`
}

// Status assembles the read-only rotation snapshot. Lifetime counts
// merge the ledger with the legacy duty records by normalized name;
// skipped entries are excluded from counts by both sources.
func (s *Scheduler) Status(ctx context.Context, lookback int) (*Status, error) {
	if lookback <= 0 {
		lookback = defaultLookback
	}

	roster, err := s.members.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible members: %w", err)
	}

	recent, err := s.assignments.Recent(ctx, lookback)
	if err != nil {
		return nil, fmt.Errorf("recent assignments: %w", err)
	}

	current, err := s.assignments.LatestActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest active assignment: %w", err)
	}

	lookbackRows := recent
	if len(roster) < len(recent) {
		lookbackRows = recent[:len(roster)]
	} else if len(roster) > len(recent) {
		lookbackRows, err = s.assignments.Recent(ctx, len(roster))
		if err != nil {
			return nil, fmt.Errorf("recent assignments: %w", err)
		}
	}
	recentNames := make([]string, 0, len(lookbackRows))
	for _, a := range lookbackRows {
		recentNames = append(recentNames, a.MemberName)
	}

	counts, err := s.assignments.CountsByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}
	legacyCounts, err := s.legacy.CountsByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("legacy counts: %w", err)
	}
	for name, n := range legacyCounts {
		counts[name] += n
	}

	total, err := s.assignments.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	return &Status{
		Current: current,
		Recent:  recent,
		Roster:  roster,
		Snapshot: Snapshot{
			RecentNames: recentNames,
			Counts:      counts,
			Total:       total,
		},
	}, nil
}
