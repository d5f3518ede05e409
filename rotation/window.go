package rotation

import "time"

// Lead days give the assignee notice before the window opens; the span
// matches one weekly cycle.
const (
	windowLeadDays = 3
	windowSpanDays = 7
)

type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor derives the duty window from an anchor date.
func WindowFor(anchor time.Time) Window {
	start := anchor.AddDate(0, 0, windowLeadDays)

	return Window{
		Start: start,
		End:   start.AddDate(0, 0, windowSpanDays),
	}
}

// Overlaps reports whether the windows share any day. Touching
// boundaries count as overlap.
func (w Window) Overlaps(start, end time.Time) bool {
	return !end.Before(w.Start) && !start.After(w.End)
}
