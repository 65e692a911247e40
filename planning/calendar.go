/*
calendar.go - Roster period generation and lookup

PURPOSE:
  Roster periods are the fixed 28-day operational scheduling windows that
  renewals are assigned into. The calendar generates a contiguous,
  non-overlapping run of periods from an anchor date and answers two
  questions:
  - which period contains a given date
  - which periods overlap a given date range

PERIOD CODES:
  Periods are coded "RP<n>/<year>", e.g. "RP12/2025", where n is the
  period's ordinal among periods starting in that year. A 28-day cycle
  yields 13 full periods per year.

INVARIANTS:
  - Every period spans exactly 28 days inclusive (end - start == 27 days)
  - Periods are contiguous: each starts the day after the previous ends
  - PeriodsOverlapping never returns the same code twice

SEE ALSO:
  - allocator.go: Enumerates candidate periods via PeriodsOverlapping
  - window.go: Produces the date ranges fed into PeriodsOverlapping
*/
package planning

import (
	"fmt"
	"sort"
)

// PeriodLengthDays is the inclusive length of every roster period.
const PeriodLengthDays = 28

// =============================================================================
// ROSTER PERIOD
// =============================================================================

type RosterPeriod struct {
	Code  string
	Start TimePoint
	End   TimePoint // inclusive; always Start + 27 days
}

// Contains returns true if the date falls within [Start, End].
func (p RosterPeriod) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p RosterPeriod) String() string {
	return fmt.Sprintf("%s [%s, %s]", p.Code, p.Start, p.End)
}

// =============================================================================
// ROSTER CALENDAR
// =============================================================================

// RosterCalendar holds the registered run of contiguous roster periods.
// Dates outside the registered range have no period; the allocator treats
// that as "no feasible assignment" for the affected certification.
type RosterCalendar struct {
	periods []RosterPeriod // chronological
	byCode  map[string]int
}

// NewRosterCalendar generates count contiguous 28-day periods starting at
// anchor. The ordinal in each code resets when the start date rolls into a
// new year.
func NewRosterCalendar(anchor TimePoint, count int) *RosterCalendar {
	cal := &RosterCalendar{byCode: make(map[string]int, count)}

	start := anchor
	seq := 0
	year := anchor.Year()
	for i := 0; i < count; i++ {
		if start.Year() != year {
			year = start.Year()
			seq = 0
		}
		seq++

		p := RosterPeriod{
			Code:  fmt.Sprintf("RP%d/%d", seq, year),
			Start: start,
			End:   start.AddDays(PeriodLengthDays - 1),
		}
		cal.byCode[p.Code] = len(cal.periods)
		cal.periods = append(cal.periods, p)
		start = p.End.AddDays(1)
	}
	return cal
}

// Periods returns all registered periods in chronological order.
func (c *RosterCalendar) Periods() []RosterPeriod {
	out := make([]RosterPeriod, len(c.periods))
	copy(out, c.periods)
	return out
}

// PeriodByCode looks up a period by its code.
func (c *RosterCalendar) PeriodByCode(code string) (RosterPeriod, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return RosterPeriod{}, false
	}
	return c.periods[i], true
}

// PeriodContaining maps a date to the period containing it.
// Returns false when the date falls outside the registered range.
func (c *RosterCalendar) PeriodContaining(t TimePoint) (RosterPeriod, bool) {
	// First period whose end is not before t.
	i := sort.Search(len(c.periods), func(i int) bool {
		return c.periods[i].End.AfterOrEqual(t)
	})
	if i == len(c.periods) || !c.periods[i].Contains(t) {
		return RosterPeriod{}, false
	}
	return c.periods[i], true
}

// PeriodsOverlapping enumerates all periods touching [start, end], in
// chronological order. The walk strides forward in 28-day increments and
// de-duplicates by code, guarding against boundary alignment landing on the
// same period twice. Returns nil when start > end or when the span misses
// every registered period.
func (c *RosterCalendar) PeriodsOverlapping(start, end TimePoint) []RosterPeriod {
	if start.After(end) {
		return nil
	}

	var out []RosterPeriod
	seen := make(map[string]bool)
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(PeriodLengthDays) {
		if p, ok := c.PeriodContaining(cur); ok && !seen[p.Code] {
			seen[p.Code] = true
			out = append(out, p)
		}
	}
	// The final stride can jump past end without visiting its period.
	if p, ok := c.PeriodContaining(end); ok && !seen[p.Code] {
		out = append(out, p)
	}
	return out
}
