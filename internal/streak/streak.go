// Package streak implements the consecutive-day streak state machine that
// profiles advance on every new gratitude entry. It is pure date arithmetic
// at day granularity (UTC): no storage, no clock of its own.
package streak

import "time"

// State is the streak portion of a profile: the running count of consecutive
// calendar days with at least one entry, the historical maximum, and the day
// of the most recent entry (nil before the first entry ever).
type State struct {
	Current int
	Longest int
	LastDay *time.Time
}

// Advance returns the state after recording an entry created at the given
// time. Transitions, at day granularity:
//
//   - last day == yesterday: Current increments.
//   - last day == today (same-day repeat): Current is unchanged; a second
//     entry on the same day neither extends nor breaks the streak.
//   - anything else (gap, or first entry ever): Current resets to 1.
//
// Longest never decreases, and LastDay always moves to the entry's day.
// The input state is not modified.
func Advance(s State, createdAt time.Time) State {
	today := DayOf(createdAt)
	next := State{Current: 1, Longest: s.Longest}

	if s.LastDay != nil {
		switch last := DayOf(*s.LastDay); {
		case last.Equal(today):
			next.Current = s.Current
		case last.AddDate(0, 0, 1).Equal(today):
			next.Current = s.Current + 1
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastDay = &today
	return next
}

// DayOf truncates t to day granularity in UTC.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
