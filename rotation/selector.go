package rotation

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/teamops/curator-rotation/entity"
)

// Selector picks the next curator under a no-repeat-before-exhaustion
// rule: nobody who appears in the last N ledger entries (N = current
// eligible roster size) is picked again until everyone else has served.
// Deriving the lookback from the ledger keeps the fairness window
// self-adjusting as the roster grows or shrinks.
type Selector struct {
	assignments AssignmentStore

	// rand defaults to crypto/rand.Reader; tests inject a
	// deterministic source.
	rand io.Reader
}

func NewSelector(assignments AssignmentStore) *Selector {
	return &Selector{assignments: assignments, rand: rand.Reader}
}

// Pick draws uniformly from the roster members not seen in the recent
// lookback, resetting to the full roster once everyone has served.
func (s *Selector) Pick(ctx context.Context, roster []*entity.Member) (*entity.Member, error) {
	if len(roster) == 0 {
		return nil, ErrNoEligibleCurators
	}

	recent, err := s.assignments.Recent(ctx, len(roster))
	if err != nil {
		return nil, fmt.Errorf("recent assignments: %w", err)
	}

	recentNames := make(map[string]struct{}, len(recent))
	for _, a := range recent {
		recentNames[normalizeName(a.MemberName)] = struct{}{}
	}

	var candidates []*entity.Member
	for _, m := range roster {
		if _, ok := recentNames[normalizeName(m.Name)]; !ok {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = roster
	}

	i, err := s.drawIndex(len(candidates))
	if err != nil {
		return nil, fmt.Errorf("draw index: %w", err)
	}

	return candidates[i], nil
}

// drawIndex maps one 64-bit draw onto [0,1), scales by n and floors.
func (s *Selector) drawIndex(n int) (int, error) {
	var b [8]byte
	if _, err := io.ReadFull(s.rand, b[:]); err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}

	f := float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)

	return int(math.Floor(f * float64(n))), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
